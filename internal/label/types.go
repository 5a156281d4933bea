package label

import (
	"fmt"
	"strings"
)

// Template selects how logical items are arranged on physical sheets.
type Template int

const (
	SingleText Template = iota + 1
	DoubleText
	QRWithText
	BarcodeWithText
	SixCellGrid
	CustomLayout
)

var templateNames = map[Template]string{
	SingleText:      "single-text",
	DoubleText:      "double-text",
	QRWithText:      "qrcode-with-text",
	BarcodeWithText: "barcode-with-text",
	SixCellGrid:     "six-cell-grid",
	CustomLayout:    "custom",
}

func (t Template) String() string {
	if n, ok := templateNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseTemplate maps a request template name to a Template.
func ParseTemplate(s string) (Template, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range templateNames {
		if n == name {
			return t, nil
		}
	}
	switch name {
	case "text", "single":
		return SingleText, nil
	case "double":
		return DoubleText, nil
	case "qrcode", "qr":
		return QRWithText, nil
	case "barcode":
		return BarcodeWithText, nil
	case "grid", "six-cell":
		return SixCellGrid, nil
	}
	return 0, ValidationError("template", "unknown template %q", s)
}

// Capacity is the number of logical items that fit on one sheet. CustomLayout returns 0:
// the caller places every element itself.
func (t Template) Capacity() int {
	switch t {
	case SingleText:
		return 1
	case DoubleText, QRWithText, BarcodeWithText:
		return 2
	case SixCellGrid:
		return 6
	default:
		return 0
	}
}

// Item is one logical label: a caption plus optional code payloads.
type Item struct {
	Text           string
	QRContent      string
	BarcodeContent string
}

// ElementType tags the variant held by an Element.
type ElementType int

const (
	ElementText ElementType = iota + 1
	ElementQRCode
	ElementBarcode
	ElementBox
	ElementBar
	ElementCrossMark
)

func (t ElementType) String() string {
	switch t {
	case ElementText:
		return "text"
	case ElementQRCode:
		return "qrcode"
	case ElementBarcode:
		return "barcode"
	case ElementBox:
		return "box"
	case ElementBar:
		return "bar"
	case ElementCrossMark:
		return "cross"
	default:
		return "unknown"
	}
}

// Element is a single drawable at (X, Y) dots from the top-left corner. Exactly one of the
// variant pointers matching Type is set.
type Element struct {
	Type ElementType
	X, Y int

	Text      *Text
	QRCode    *QRCode
	Barcode   *Barcode
	Box       *Box
	Bar       *Bar
	CrossMark *CrossMark
}

type Text struct {
	FontHeight int
	// Font overrides the configured font name when set.
	Font    string
	Content string
	// Legacy asks for the legacy font; see CharsetPolicy.Resolve.
	Legacy bool
}

type QRCode struct {
	ModuleSize int
	// ECC is L, M, Q or H. Empty means H.
	ECC     string
	Content string
}

type Barcode struct {
	Symbology     string
	Height        int
	HumanReadable bool
	Narrow, Wide  int
	Content       string
}

// Box is an outlined rectangle from (X, Y) to (X2, Y2).
type Box struct {
	X2, Y2    int
	Thickness int
}

// Bar is a filled rectangle.
type Bar struct {
	Width, Height int
}

// CrossMark is a calibration cross centred on (X, Y).
type CrossMark struct {
	Size      int
	Thickness int
}

func NewText(x, y, fontHeight int, content string) Element {
	return Element{Type: ElementText, X: x, Y: y, Text: &Text{FontHeight: fontHeight, Content: content}}
}

func NewQRCode(x, y, moduleSize int, content string) Element {
	return Element{Type: ElementQRCode, X: x, Y: y, QRCode: &QRCode{ModuleSize: moduleSize, Content: content}}
}

func NewBarcode(x, y int, b Barcode) Element {
	return Element{Type: ElementBarcode, X: x, Y: y, Barcode: &b}
}

func NewBox(x1, y1, x2, y2, thickness int) Element {
	return Element{Type: ElementBox, X: x1, Y: y1, Box: &Box{X2: x2, Y2: y2, Thickness: thickness}}
}

func NewBar(x, y, w, h int) Element {
	return Element{Type: ElementBar, X: x, Y: y, Bar: &Bar{Width: w, Height: h}}
}

func NewCrossMark(x, y, size, thickness int) Element {
	return Element{Type: ElementCrossMark, X: x, Y: y, CrossMark: &CrossMark{Size: size, Thickness: thickness}}
}

// Clone returns a deep copy so that planned sheets never share variant structs.
func (e Element) Clone() Element {
	c := e
	switch {
	case e.Text != nil:
		v := *e.Text
		c.Text = &v
	case e.QRCode != nil:
		v := *e.QRCode
		c.QRCode = &v
	case e.Barcode != nil:
		v := *e.Barcode
		c.Barcode = &v
	case e.Box != nil:
		v := *e.Box
		c.Box = &v
	case e.Bar != nil:
		v := *e.Bar
		c.Bar = &v
	case e.CrossMark != nil:
		v := *e.CrossMark
		c.CrossMark = &v
	}
	return c
}

// validate checks that the variant pointer matches Type and holds usable values.
func (e Element) validate(i int) error {
	bad := func(format string, args ...any) error {
		return ValidationError("custom_layout", "element %d (%s): "+format, append([]any{i, e.Type}, args...)...)
	}
	if e.X < 0 || e.Y < 0 {
		return bad("position (%d,%d) is off the label", e.X, e.Y)
	}
	switch e.Type {
	case ElementText:
		if e.Text == nil || e.Text.Content == "" {
			return bad("text is required")
		}
		if err := checkLine("text", e.Text.Content); err != nil {
			return bad("%v", err)
		}
		if err := checkName("font_name", e.Text.Font); err != nil {
			return bad("%v", err)
		}
	case ElementQRCode:
		if e.QRCode == nil || e.QRCode.Content == "" {
			return bad("content is required")
		}
		if err := checkLine("content", e.QRCode.Content); err != nil {
			return bad("%v", err)
		}
		if !ValidECC(e.QRCode.ECC) {
			return bad("ecc %q must be one of L, M, Q or H", e.QRCode.ECC)
		}
	case ElementBarcode:
		if e.Barcode == nil || e.Barcode.Content == "" {
			return bad("content is required")
		}
		if err := checkLine("content", e.Barcode.Content); err != nil {
			return bad("%v", err)
		}
		if err := checkName("barcode_type", e.Barcode.Symbology); err != nil {
			return bad("%v", err)
		}
	case ElementBox:
		if e.Box == nil || e.Box.X2 <= e.X || e.Box.Y2 <= e.Y {
			return bad("box must have a positive size")
		}
	case ElementBar:
		if e.Bar == nil || e.Bar.Width <= 0 || e.Bar.Height <= 0 {
			return bad("bar must have a positive size")
		}
	case ElementCrossMark:
		if e.CrossMark == nil || e.CrossMark.Size <= 0 {
			return bad("cross mark must have a positive size")
		}
	default:
		return bad("unknown element type")
	}
	return nil
}

// PrintJob is everything needed to produce the sheets of one print request.
type PrintJob struct {
	Template Template
	Items    []Item
	Sheet    LabelSheet
	// Repeat is the number of copies of each sheet. For CustomLayout it becomes the PRINT quantity.
	Repeat int
	// Elements holds the caller-placed elements of a CustomLayout job.
	Elements []Element
}

// Copies normalises Repeat: anything below 1 means one copy.
func (j PrintJob) Copies() int {
	if j.Repeat < 1 {
		return 1
	}
	return j.Repeat
}

// Validate checks the job without touching any printer.
func (j PrintJob) Validate() error {
	if err := j.Sheet.Validate(); err != nil {
		return err
	}
	if j.Repeat < 0 {
		return ValidationError("print_job", "qty %d must not be negative", j.Repeat)
	}

	if j.Template == CustomLayout {
		if len(j.Elements) == 0 {
			return ValidationError("print_job", "custom layout has no elements")
		}
		for i, e := range j.Elements {
			if err := e.validate(i); err != nil {
				return err
			}
		}
		return nil
	}

	if j.Template.Capacity() == 0 {
		return ValidationError("print_job", "unknown template %d", int(j.Template))
	}
	if len(j.Items) == 0 {
		return ValidationError("print_job", "items list is empty")
	}
	for i, it := range j.Items {
		for _, f := range []struct{ name, value string }{
			{"text", it.Text},
			{"qr_content", it.QRContent},
			{"barcode_content", it.BarcodeContent},
		} {
			if err := checkLine(f.name, f.value); err != nil {
				return ValidationError("print_job", "item %d: %v", i, err)
			}
		}
		switch j.Template {
		case QRWithText:
			if it.QRContent == "" {
				return ValidationError("print_job", "item %d: qr_content is required for %s", i, j.Template)
			}
		case BarcodeWithText:
			if it.BarcodeContent == "" {
				return ValidationError("print_job", "item %d: barcode_content is required for %s", i, j.Template)
			}
		case SixCellGrid:
			if it.Text == "" && it.QRContent == "" {
				return ValidationError("print_job", "item %d: text or qr_content is required for %s", i, j.Template)
			}
		default:
			if it.Text == "" {
				return ValidationError("print_job", "item %d: text is required for %s", i, j.Template)
			}
		}
	}
	return nil
}

// PlannedSheet is one physical label worth of elements, ready for encoding.
type PlannedSheet struct {
	Sheet    LabelSheet
	Elements []Element
	// Copies is the PRINT quantity for this sheet.
	Copies int
}

// ValidECC reports whether ecc is a QRCODE error correction level. Empty means the default H.
func ValidECC(ecc string) bool {
	switch ecc {
	case "", "L", "M", "Q", "H":
		return true
	}
	return false
}

// checkLine rejects line breaks, which would end a command early and start a new one.
func checkLine(field, s string) error {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return fmt.Errorf("%s must not contain a line break (byte %d)", field, i)
	}
	return nil
}

// checkName is checkLine for values written inside quotes that cannot be escaped.
func checkName(field, s string) error {
	if err := checkLine(field, s); err != nil {
		return err
	}
	if strings.Contains(s, `"`) {
		return fmt.Errorf("%s must not contain a double quote", field)
	}
	return nil
}
