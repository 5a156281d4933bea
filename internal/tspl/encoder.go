package tspl

import (
	"fmt"
	"strings"

	"tomgalvin.uk/tsclabel/internal/label"
)

// Raster is a packed 1-bit image where a 0 bit prints black.
type Raster interface {
	Stride() int
	Height() int
	Data() []byte
}

// Rasterizer renders a planned sheet into a Raster for printers without suitable fonts.
type Rasterizer interface {
	Rasterize(sheet label.PlannedSheet) (Raster, error)
}

// Encoder turns planned sheets into TSPL command lines. It does no I/O.
type Encoder struct {
	cfg    label.Config
	raster Rasterizer
}

// NewEncoder returns an encoder for cfg. r is only used when cfg.Raster is set and may be nil otherwise.
func NewEncoder(cfg label.Config, r Rasterizer) *Encoder {
	return &Encoder{cfg: cfg, raster: r}
}

func (e *Encoder) Config() label.Config {
	return e.cfg
}

// Init returns the block issued at the start of every sheet.
func (e *Encoder) Init(sheet label.LabelSheet) []string {
	cmds := []string{
		clearBuffer(),
		setSize(sheet.WidthMM, sheet.HeightMM),
		setGap(e.cfg.GapMM),
		setDirection(Forward),
		setReference(0, 0),
		setOffset(0),
		setSpeed(e.cfg.Speed),
		setDensity(e.cfg.Density),
		setTear(false),
		setPeel(false),
		setShift(0),
	}
	if e.cfg.Charset.Mode == label.UTF8 && !e.cfg.Raster {
		cmds = append(cmds, setCodepage("UTF-8"))
	}
	return cmds
}

// EncodeSheet renders one sheet: the init block, one command per element in order,
// then PRINT.
func (e *Encoder) EncodeSheet(s label.PlannedSheet) ([]string, error) {
	cmds := e.Init(s.Sheet)

	if e.cfg.Raster {
		if e.raster == nil {
			return nil, label.ConfigurationError("encode", "raster mode needs a rasterizer")
		}
		r, err := e.raster.Rasterize(s)
		if err != nil {
			return nil, label.EncodingError("encode", "couldn't rasterize sheet: %v", err)
		}
		cmds = append(cmds, drawBitmap(0, 0, r.Stride(), r.Height(), r.Data()))
	} else {
		for i, el := range s.Elements {
			c, err := e.encodeElement(el)
			if err != nil {
				return nil, fmt.Errorf("element %d:\n%w", i, err)
			}
			for _, line := range c {
				if strings.ContainsAny(line, "\r\n") {
					return nil, label.ValidationError("encode", "element %d: payload contains a line break", i)
				}
			}
			cmds = append(cmds, c...)
		}
	}

	copies := s.Copies
	if copies < 1 {
		copies = 1
	}
	return append(cmds, printLabel(copies, 1)), nil
}

// EncodeJob plans the job and encodes every sheet. Nothing is returned unless every
// sheet encodes, so a caller can validate a whole job before opening a connection.
func (e *Encoder) EncodeJob(job label.PrintJob) ([][]string, error) {
	sheets, err := label.Plan(e.cfg, job)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(sheets))
	for i, s := range sheets {
		if out[i], err = e.EncodeSheet(s); err != nil {
			return nil, fmt.Errorf("Couldn't encode sheet %d:\n%w", i+1, err)
		}
	}
	return out, nil
}

func (e *Encoder) encodeElement(el label.Element) ([]string, error) {
	switch el.Type {
	case label.ElementText:
		c, err := e.encodeText(el.X, el.Y, el.Text)
		if err != nil {
			return nil, err
		}
		return []string{c}, nil
	case label.ElementQRCode:
		q := el.QRCode
		ecc := q.ECC
		if ecc == "" {
			ecc = "H"
		}
		return []string{drawQRCode(el.X, el.Y, ecc, q.ModuleSize, "A", Rotate0, e.cfg.QRModel, e.cfg.QRMask, q.Content)}, nil
	case label.ElementBarcode:
		b := el.Barcode
		return []string{drawBarcode(el.X, el.Y, b.Symbology, b.Height, b.HumanReadable, Rotate0, b.Narrow, b.Wide, b.Content)}, nil
	case label.ElementBox:
		return []string{drawBox(el.X, el.Y, el.Box.X2, el.Box.Y2, e.thickness(el.Box.Thickness))}, nil
	case label.ElementBar:
		return []string{drawBar(el.X, el.Y, el.Bar.Width, el.Bar.Height)}, nil
	case label.ElementCrossMark:
		c := el.CrossMark
		t := e.thickness(c.Thickness)
		return []string{
			drawBar(max(0, el.X-c.Size/2), max(0, el.Y-t/2), c.Size, t),
			drawBar(max(0, el.X-t/2), max(0, el.Y-c.Size/2), t, c.Size),
		}, nil
	default:
		return nil, label.ValidationError("encode", "unknown element type %d", int(el.Type))
	}
}

func (e *Encoder) encodeText(x, y int, t *label.Text) (string, error) {
	route, payload, err := e.cfg.Charset.Resolve(t.Content, t.Legacy)
	if err != nil {
		return "", err
	}
	font := e.cfg.UTF8Font
	if route == label.RouteLegacy {
		font = e.cfg.LegacyFont
	}
	if t.Font != "" {
		font.Name = t.Font
	}
	mul := multiplier(font, t.FontHeight)
	return drawText(x, y, font.Name, Rotate0, mul, mul, payload), nil
}

func (e *Encoder) thickness(t int) int {
	if t > 0 {
		return t
	}
	return e.cfg.LineThickness
}

// multiplier maps a font height in dots to the TEXT x/y multiplication factor.
func multiplier(f label.Font, fontHeight int) int {
	if f.Scalable {
		return max(1, fontHeight)
	}
	if f.CellHeight <= 0 {
		return 1
	}
	return max(1, fontHeight/f.CellHeight)
}
