package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/tspl"
)

// humanReadableHeight is the font height used under barcodes with a human-readable line.
const humanReadableHeight = 20

// Renderer draws planned sheets the way the printer lays them out: one image pixel per
// printer dot, origin top-left.
type Renderer struct {
	fonts *Fonts
}

var _ tspl.Rasterizer = (*Renderer)(nil)

func NewRenderer(f *Fonts) *Renderer {
	return &Renderer{fonts: f}
}

// Render draws the sheet in greyscale without dithering.
func (r *Renderer) Render(s label.PlannedSheet) (*image.Gray, error) {
	w, h := s.Sheet.WidthDots(), s.Sheet.HeightDots()
	if w <= 0 || h <= 0 {
		return nil, label.ConfigurationError("render", "sheet has no area")
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for i, el := range s.Elements {
		if err := r.drawElement(img, el); err != nil {
			return nil, fmt.Errorf("Couldn't draw element %d (%s):\n%w", i, el.Type, err)
		}
	}
	return img, nil
}

// RenderForDevice renders the sheet and dithers it to pure black and white.
func (r *Renderer) RenderForDevice(s label.PlannedSheet) (*image.Paletted, error) {
	img, err := r.Render(s)
	if err != nil {
		return nil, err
	}

	palette := []color.Color{color.Black, color.White}
	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.FloydSteinberg
	ditherer.Serpentine = true
	return ditherer.DitherPaletted(img), nil
}

// Rasterize produces the packed bitmap sent with the BITMAP command in raster mode.
func (r *Renderer) Rasterize(s label.PlannedSheet) (tspl.Raster, error) {
	p, err := r.RenderForDevice(s)
	if err != nil {
		return nil, err
	}
	b, err := FromPaletted(p)
	if err != nil {
		return nil, err
	}
	return PackBitmap(b), nil
}

// WritePNG writes one PNG for the sheet.
func (r *Renderer) WritePNG(w io.Writer, s label.PlannedSheet) error {
	img, err := r.RenderForDevice(s)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("Couldn't encode PNG:\n%w", err)
	}
	return nil
}

func (r *Renderer) drawElement(img *image.Gray, el label.Element) error {
	switch el.Type {
	case label.ElementText:
		return r.drawText(img, el.X, el.Y, el.Text.FontHeight, el.Text.Content)
	case label.ElementQRCode:
		return drawQRCode(img, el.X, el.Y, el.QRCode)
	case label.ElementBarcode:
		return r.drawBarcode(img, el.X, el.Y, el.Barcode)
	case label.ElementBox:
		b := el.Box
		t := max(1, b.Thickness)
		fill(img, el.X, el.Y, b.X2-el.X, t)
		fill(img, el.X, b.Y2-t, b.X2-el.X, t)
		fill(img, el.X, el.Y, t, b.Y2-el.Y)
		fill(img, b.X2-t, el.Y, t, b.Y2-el.Y)
	case label.ElementBar:
		fill(img, el.X, el.Y, el.Bar.Width, el.Bar.Height)
	case label.ElementCrossMark:
		c := el.CrossMark
		t := max(1, c.Thickness)
		fill(img, el.X-c.Size/2, el.Y-t/2, c.Size, t)
		fill(img, el.X-t/2, el.Y-c.Size/2, t, c.Size)
	}
	return nil
}

func fill(img *image.Gray, x, y, w, h int) {
	rect := image.Rect(x, y, x+w, y+h).Intersect(img.Bounds())
	draw.Draw(img, rect, image.Black, image.Point{}, draw.Src)
}

func (r *Renderer) drawText(img *image.Gray, x, y, height int, text string) error {
	face, err := r.fonts.Face(height)
	if err != nil {
		return err
	}
	if !r.fonts.HasGlyphs(strings.ReplaceAll(text, " ", "")) {
		slog.Warn("Font is missing glyphs, preview text will be incomplete", "font", r.fonts.Name(), "text", text)
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + face.Metrics().Ascent}
	d.DrawString(text)
	return nil
}

func qrLevel(ecc string) qr.ErrorCorrectionLevel {
	switch strings.ToUpper(ecc) {
	case "L":
		return qr.L
	case "M":
		return qr.M
	case "Q":
		return qr.Q
	default:
		return qr.H
	}
}

func drawQRCode(img *image.Gray, x, y int, q *label.QRCode) error {
	code, err := qr.Encode(q.Content, qrLevel(q.ECC), qr.Auto)
	if err != nil {
		return fmt.Errorf("Couldn't encode QR code:\n%w", err)
	}
	side := code.Bounds().Dx() * max(1, q.ModuleSize)
	scaled, err := barcode.Scale(code, side, side)
	if err != nil {
		return fmt.Errorf("Couldn't scale QR code:\n%w", err)
	}
	draw.Draw(img, image.Rect(x, y, x+side, y+side), scaled, scaled.Bounds().Min, draw.Src)
	return nil
}

func encodeBarcode(symbology, content string) (barcode.Barcode, error) {
	switch strings.ToUpper(symbology) {
	case "128", "128M":
		return code128.Encode(content)
	case "39", "39S":
		return code39.Encode(content, false, true)
	case "93":
		return code93.Encode(content, false, true)
	case "EAN13", "EAN8":
		return ean.Encode(content)
	default:
		return nil, fmt.Errorf("Unsupported barcode symbology %q", symbology)
	}
}

func (r *Renderer) drawBarcode(img *image.Gray, x, y int, b *label.Barcode) error {
	code, err := encodeBarcode(b.Symbology, b.Content)
	if err != nil {
		return err
	}
	width := code.Bounds().Dx() * max(1, b.Narrow)
	scaled, err := barcode.Scale(code, width, b.Height)
	if err != nil {
		return fmt.Errorf("Couldn't scale barcode:\n%w", err)
	}
	draw.Draw(img, image.Rect(x, y, x+width, y+b.Height), scaled, scaled.Bounds().Min, draw.Src)

	if b.HumanReadable {
		tw := label.EstimateWidth(b.Content, humanReadableHeight)
		return r.drawText(img, x+max(0, (width-tw)/2), y+b.Height+2, humanReadableHeight, b.Content)
	}
	return nil
}
