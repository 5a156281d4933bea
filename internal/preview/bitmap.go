// This file defines the 1-bit bitmap types used to send a rendered sheet to the printer.
// PixelBitmap stores a byte per pixel and is used to test PackedBitmap, which is the row
// packed format the TSPL BITMAP command consumes.
package preview

import (
	"fmt"
	"image"
	"image/color"
)

// Bit values as the printer reads them: a 0 bit burns a dot.
const (
	Black byte = 0
	White byte = 1
)

type Bitmap interface {
	Width() int
	Height() int
	GetBit(x int, y int) byte
}

type PixelBitmap struct {
	pixels        [][]byte
	width, height int
}

func (b *PixelBitmap) Width() int {
	return b.width
}

func (b *PixelBitmap) Height() int {
	return b.height
}

func (b *PixelBitmap) GetBit(x int, y int) byte {
	return b.pixels[y][x]
}

func (b *PixelBitmap) String() string {
	return fmt.Sprintf("PixelBitmap(%d,%d)", b.width, b.height)
}

// a bitmap packed in memory, 8 pixels per byte with the leftmost pixel in the most
// significant bit. Rows are padded to a whole byte with white.
type PackedBitmap struct {
	data                  []byte
	width, height, stride int
}

const bitsPerWord = 8

func (b *PackedBitmap) Width() int {
	return b.width
}

func (b *PackedBitmap) Height() int {
	return b.height
}

func (b *PackedBitmap) Stride() int {
	return b.stride
}

func (b *PackedBitmap) Data() []byte {
	return b.data
}

// Gets a single bit from the bitmap at the (x, y) coordinate, returns either 0 or 1
func (b *PackedBitmap) GetBit(x int, y int) byte {
	index := (y * b.stride) + (x / bitsPerWord)
	return (b.data[index] >> (bitsPerWord - 1 - x%bitsPerWord)) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d)", b.width, b.height)
}

// Packs any bitmap into the row format sent with BITMAP
func PackBitmap(b Bitmap) *PackedBitmap {
	width, height, stride := b.Width(), b.Height(), (b.Width()+bitsPerWord-1)/bitsPerWord
	data := make([]byte, stride*height)

	for y := range height {
		var p byte
		for x := range width {
			p = (p << 1) | (b.GetBit(x, y) & 1)

			if x%bitsPerWord == bitsPerWord-1 {
				data[y*stride+x/bitsPerWord] = p
				p = 0
			}
		}
		if rem := width % bitsPerWord; rem != 0 {
			pad := bitsPerWord - rem
			p = (p << pad) | (0xFF >> (bitsPerWord - pad))
			data[y*stride+stride-1] = p
		}
	}

	return &PackedBitmap{data, width, height, stride}
}

type ImageBitmap struct {
	image *image.Paletted
	// colorMap[i] is the bit sent for palette index i
	colorMap [2]byte
}

func (b *ImageBitmap) Width() int {
	return b.image.Rect.Dx()
}

func (b *ImageBitmap) Height() int {
	return b.image.Rect.Dy()
}

func (b *ImageBitmap) GetBit(x int, y int) byte {
	r := b.image.Rect
	return b.colorMap[b.image.ColorIndexAt(r.Min.X+x, r.Min.Y+y)]
}

func FromPaletted(i *image.Paletted) (*ImageBitmap, error) {
	if len(i.Palette) != 2 {
		return nil, fmt.Errorf("Image passed to FromPaletted must have only 2 colours in palette")
	}

	// Whichever palette entry is closest to white is left unprinted.
	colorMap := [2]byte{White, Black}
	if i.Palette.Index(color.White) == 1 {
		colorMap = [2]byte{Black, White}
	}

	return &ImageBitmap{
		image:    i,
		colorMap: colorMap,
	}, nil
}
