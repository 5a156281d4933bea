// This file implements the TSPL command strings understood by TSC label printers.
// Every function returns a single command line without the trailing CRLF; the
// connection adds the line terminator when the command is written.
package tspl

import (
	"fmt"
	"strconv"
	"strings"
)

// Print direction relative to the feed
type Direction int

const (
	Forward  Direction = 0
	Backward Direction = 1
)

// Rotation of a drawn element in degrees clockwise
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Escapes double quotes inside a string payload. TSPL reads \["] as a literal quote
// and would otherwise end the string early.
func Escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\["]`)
}

// Formats a millimetre value without trailing zeros, so 100 becomes "100" and 40.5 stays "40.5"
func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Clears the image buffer
func clearBuffer() string {
	return "CLS"
}

// Sets the label width and height in millimetres
func setSize(widthMM, heightMM float64) string {
	return fmt.Sprintf("SIZE %s mm,%s mm", mm(widthMM), mm(heightMM))
}

// Sets the gap between labels. A gap of 0 selects continuous stock.
func setGap(gapMM float64) string {
	return fmt.Sprintf("GAP %s mm,0 mm", mm(gapMM))
}

// Sets the printout direction
func setDirection(d Direction) string {
	return fmt.Sprintf("DIRECTION %d", d)
}

// Sets the reference point of the label, which every coordinate is relative to
func setReference(x, y int) string {
	return fmt.Sprintf("REFERENCE %d,%d", x, y)
}

// Sets how far the label is pushed past the tear bar after printing
func setOffset(offsetMM float64) string {
	return fmt.Sprintf("OFFSET %s mm", mm(offsetMM))
}

// Sets the print speed in inches per second
func setSpeed(ips int) string {
	return fmt.Sprintf("SPEED %d", ips)
}

// Sets the printing darkness, 0 to 15
func setDensity(n int) string {
	return fmt.Sprintf("DENSITY %d", n)
}

// Enables or disables feeding the label to the tear bar after printing.
// When enabled the printer pulls the stock back before the next label, which
// shifts the print position on some models.
func setTear(on bool) string {
	return "SET TEAR " + onOff(on)
}

// Enables or disables the peel-off sensor
func setPeel(on bool) string {
	return "SET PEEL " + onOff(on)
}

// Shifts the print position vertically by n dots
func setShift(n int) string {
	return fmt.Sprintf("SHIFT %d", n)
}

// Selects the code page used to interpret TEXT payloads
func setCodepage(name string) string {
	return "CODEPAGE " + name
}

// Draws text with a printer-resident font. For bitmap fonts xmul and ymul are
// integer magnifications, for the scalable font they are point sizes.
func drawText(x, y int, font string, rotation Rotation, xmul, ymul int, text string) string {
	return fmt.Sprintf(`TEXT %d,%d,"%s",%d,%d,%d,"%s"`, x, y, font, rotation, xmul, ymul, Escape(text))
}

// Draws a QR code. ecc is one of L, M, Q or H and cell is the module width in dots.
// model ("M1"/"M2") and mask ("S0".."S8") are optional and left out when empty.
func drawQRCode(x, y int, ecc string, cell int, mode string, rotation Rotation, model, mask, data string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "QRCODE %d,%d,%s,%d,%s,%d", x, y, ecc, cell, mode, rotation)
	if model != "" {
		b.WriteString("," + model)
	}
	if mask != "" {
		b.WriteString("," + mask)
	}
	fmt.Fprintf(&b, `,"%s"`, Escape(data))
	return b.String()
}

// Draws a linear barcode. human selects whether the human-readable line is printed.
func drawBarcode(x, y int, symbology string, height int, human bool, rotation Rotation, narrow, wide int, data string) string {
	h := 0
	if human {
		h = 1
	}
	return fmt.Sprintf(`BARCODE %d,%d,"%s",%d,%d,%d,%d,%d,"%s"`,
		x, y, Escape(symbology), height, h, rotation, narrow, wide, Escape(data))
}

// Draws an outlined rectangle
func drawBox(x1, y1, x2, y2, thickness int) string {
	return fmt.Sprintf("BOX %d,%d,%d,%d,%d", x1, y1, x2, y2, thickness)
}

// Draws a filled rectangle
func drawBar(x, y, width, height int) string {
	return fmt.Sprintf("BAR %d,%d,%d,%d", x, y, width, height)
}

// Prepares the printer to draw bitmap data at (x, y). widthBytes is the row stride
// with 8 dots packed into 1 byte, height is the number of rows. A 0 bit prints black.
// The command line is followed directly by widthBytes*height bytes of raw data.
func drawBitmap(x, y, widthBytes, height int, data []byte) string {
	return fmt.Sprintf("BITMAP %d,%d,%d,%d,0,", x, y, widthBytes, height) + string(data)
}

// Prints the image buffer qty times. sets repeats each copy.
func printLabel(qty, sets int) string {
	return fmt.Sprintf("PRINT %d,%d", qty, sets)
}
