package preview

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// DefaultFont has no CJK glyphs. Point the renderer at a CJK TrueType file when
// previewing Chinese labels.
const DefaultFont = "goregular"

// Fonts loads one TrueType/OpenType font and hands out faces sized in dots.
type Fonts struct {
	name string
	data []byte
	font *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// LoadFonts accepts a builtin name ("goregular", "gomono") or a path to a font file.
func LoadFonts(name string) (*Fonts, error) {
	data, err := getFontData(name)
	if err != nil {
		return nil, fmt.Errorf("Couldn't get font data:\n%w", err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Couldn't parse font %s:\n%w", name, err)
	}
	return &Fonts{name: name, data: data, font: parsed, faces: map[int]font.Face{}}, nil
}

func getFontData(name string) ([]byte, error) {
	switch name {
	case "", "goregular":
		return goregular.TTF, nil
	case "gomono":
		return gomono.TTF, nil
	default:
		return os.ReadFile(name)
	}
}

// Data returns the raw font file, for renderers that embed it.
func (f *Fonts) Data() []byte {
	return f.data
}

func (f *Fonts) Name() string {
	return f.name
}

// Face returns a face whose em is height dots. At 72 DPI one point is one dot.
func (f *Fonts) Face(height int) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if face, ok := f.faces[height]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    float64(height),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("Couldn't create font face:\n%w", err)
	}
	f.faces[height] = face
	return face, nil
}

// HasGlyphs reports whether every rune of s is present in the font.
func (f *Fonts) HasGlyphs(s string) bool {
	var buf sfnt.Buffer
	for _, r := range s {
		idx, err := f.font.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			return false
		}
	}
	return true
}
