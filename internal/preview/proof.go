package preview

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"tomgalvin.uk/tsclabel/internal/label"
)

// ptPerMM converts a font size in millimetres to points for canvas faces.
const ptPerMM = 72 / 25.4

// WritePDF writes a proof with one page per sheet at the physical label size. Text and
// shapes are vector, codes are embedded at printer resolution.
func (r *Renderer) WritePDF(w io.Writer, sheets []label.PlannedSheet) error {
	if len(sheets) == 0 {
		return label.ValidationError("proof", "no sheets to render")
	}

	family := canvas.NewFontFamily("label")
	if err := family.LoadFont(r.fonts.Data(), 0, canvas.FontRegular); err != nil {
		return fmt.Errorf("Couldn't load font into proof:\n%w", err)
	}

	first := sheets[0].Sheet
	writer := pdf.New(w, first.WidthMM, first.HeightMM, nil)
	for i, s := range sheets {
		if i > 0 {
			writer.NewPage(s.Sheet.WidthMM, s.Sheet.HeightMM)
		}
		c := canvas.New(s.Sheet.WidthMM, s.Sheet.HeightMM)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV)

		if err := r.drawProofPage(ctx, family, s); err != nil {
			return fmt.Errorf("Couldn't draw sheet %d:\n%w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("Couldn't write PDF:\n%w", err)
	}
	return nil
}

func (r *Renderer) drawProofPage(ctx *canvas.Context, family *canvas.FontFamily, s label.PlannedSheet) error {
	ratio := s.Sheet.DPIRatio
	mm := func(dots int) float64 { return label.DotsToMM(dots, ratio) }

	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(color.RGBA{200, 200, 200, 255})
	ctx.SetStrokeWidth(0.1)
	m := mm(s.Sheet.MarginDots)
	ctx.DrawPath(m, m, canvas.Rectangle(mm(s.Sheet.EffectiveWidth()), mm(s.Sheet.EffectiveHeight())))

	for _, el := range s.Elements {
		switch el.Type {
		case label.ElementText:
			face := family.Face(mm(el.Text.FontHeight)*ptPerMM, canvas.Black, canvas.FontRegular, canvas.FontNormal)
			line := canvas.NewTextLine(face, el.Text.Content, canvas.Left)
			ctx.DrawText(mm(el.X), mm(el.Y)+face.Metrics().Ascent, line)
		case label.ElementBox:
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
			ctx.SetStrokeColor(canvas.Black)
			ctx.SetStrokeWidth(mm(max(1, el.Box.Thickness)))
			ctx.DrawPath(mm(el.X), mm(el.Y), canvas.Rectangle(mm(el.Box.X2-el.X), mm(el.Box.Y2-el.Y)))
		case label.ElementBar:
			fillRect(ctx, mm(el.X), mm(el.Y), mm(el.Bar.Width), mm(el.Bar.Height))
		case label.ElementCrossMark:
			c := el.CrossMark
			t := max(1, c.Thickness)
			fillRect(ctx, mm(el.X-c.Size/2), mm(el.Y-t/2), mm(c.Size), mm(t))
			fillRect(ctx, mm(el.X-t/2), mm(el.Y-c.Size/2), mm(t), mm(c.Size))
		case label.ElementQRCode, label.ElementBarcode:
			img, err := r.codeImage(el)
			if err != nil {
				return err
			}
			ctx.DrawImage(mm(el.X), mm(el.Y), img, canvas.DPMM(ratio))
		}
	}
	return nil
}

func fillRect(ctx *canvas.Context, x, y, w, h float64) {
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetFillColor(canvas.Black)
	ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

// codeImage renders a single QR code or barcode element on its own tightly cropped image.
func (r *Renderer) codeImage(el label.Element) (image.Image, error) {
	var w, h int
	if el.Type == label.ElementQRCode {
		w = label.QRPixelSize(el.QRCode.ModuleSize) * 2
		h = w
	} else {
		w = label.BarcodeWidth(el.Barcode.Content) * 4
		h = el.Barcode.Height + 2*humanReadableHeight
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	local := el.Clone()
	local.X, local.Y = 0, 0
	if err := r.drawElement(img, local); err != nil {
		return nil, err
	}
	return cropWhite(img), nil
}

// cropWhite trims the white right and bottom borders so the embedded image has the
// element's real size. The top-left corner is the element position and stays put.
func cropWhite(img *image.Gray) image.Image {
	b := img.Bounds()
	maxX, maxY := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y < 0x80 {
				maxX, maxY = max(maxX, x+1), max(maxY, y+1)
			}
		}
	}
	if maxX == 0 || maxY == 0 {
		return img
	}
	return img.SubImage(image.Rect(b.Min.X, b.Min.Y, maxX, maxY))
}
