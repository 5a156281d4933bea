package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/layoutdsl"
	"tomgalvin.uk/tsclabel/internal/preset"
)

// MaxQty bounds the per-request copy count.
const MaxQty = 1000

type ItemRequest struct {
	Text           string `json:"text"`
	Text1          string `json:"text1,omitempty"`
	Text2          string `json:"text2,omitempty"`
	QRContent      string `json:"qr_content,omitempty"`
	QRCode         string `json:"qrcode,omitempty"`
	BarcodeContent string `json:"barcode_content,omitempty"`
	Barcode        string `json:"barcode,omitempty"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Items maps one request item. An item carrying both text1 and text2 is a pair of
// double-text lines and becomes two items; any code content stays with the first.
func (i ItemRequest) Items() []label.Item {
	first := label.Item{
		Text:           firstNonEmpty(i.Text, i.Text1, i.Text2),
		QRContent:      firstNonEmpty(i.QRContent, i.QRCode),
		BarcodeContent: firstNonEmpty(i.BarcodeContent, i.Barcode),
	}
	if i.Text == "" && i.Text1 != "" && i.Text2 != "" {
		return []label.Item{first, {Text: i.Text2}}
	}
	return []label.Item{first}
}

type SheetRequest struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

type ElementRequest struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`

	Text     string `json:"text,omitempty"`
	FontSize int    `json:"font_size,omitempty"`
	FontName string `json:"font_name,omitempty"`
	Legacy   bool   `json:"legacy,omitempty"`

	Content     string `json:"content,omitempty"`
	Size        int    `json:"size,omitempty"`
	ECC         string `json:"ecc,omitempty"`
	Height      int    `json:"height,omitempty"`
	BarcodeType string `json:"barcode_type,omitempty"`
	Human       *bool  `json:"human,omitempty"`
	Narrow      int    `json:"narrow,omitempty"`
	Wide        int    `json:"wide,omitempty"`

	X2        int `json:"x2,omitempty"`
	Y2        int `json:"y2,omitempty"`
	Width     int `json:"width,omitempty"`
	Thickness int `json:"thickness,omitempty"`
}

// LayoutRequest is a custom layout given either as elements or as layout source text.
type LayoutRequest struct {
	Width    float64          `json:"width,omitempty"`
	Height   float64          `json:"height,omitempty"`
	Elements []ElementRequest `json:"elements,omitempty"`
	Source   string           `json:"source,omitempty"`
}

type PrintRequest struct {
	Template string `json:"template,omitempty"`
	// Type is the numeric template code older clients send (1 single, 2 qrcode, 3 grid).
	Type      json.RawMessage `json:"type,omitempty"`
	Items     []ItemRequest   `json:"items,omitempty"`
	PrintList []ItemRequest   `json:"print_list,omitempty"`
	Sheet     *SheetRequest   `json:"sheet,omitempty"`
	Qty       int             `json:"qty,omitempty"`
	Device    string          `json:"device,omitempty"`
	Preset    string          `json:"preset,omitempty"`
	Layout    *LayoutRequest  `json:"layout,omitempty"`
}

// Decode reads one request body, rejecting unknown fields.
func Decode(data []byte) (*PrintRequest, error) {
	var r PrintRequest
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&r); err != nil {
		return nil, label.ValidationError("request", "malformed JSON: %v", err)
	}
	return &r, nil
}

var typeCodes = map[string]label.Template{
	"1": label.SingleText,
	"2": label.QRWithText,
	"3": label.SixCellGrid,
}

func (r *PrintRequest) template(p *preset.Preset) (label.Template, error) {
	if r.Template != "" {
		return label.ParseTemplate(r.Template)
	}
	if len(r.Type) > 0 {
		code := strings.Trim(string(r.Type), `"`)
		if t, ok := typeCodes[code]; ok {
			return t, nil
		}
		return label.ParseTemplate(code)
	}
	if p != nil {
		return p.Template, nil
	}
	return 0, label.ValidationError("request", "template is required")
}

// Job turns the request into the configuration and job to plan. p is the resolved preset
// (nil when the request names none) and def the sheet used when neither the request nor
// the preset gives one.
func (r *PrintRequest) Job(cfg label.Config, p *preset.Preset, def SheetRequest) (label.Config, label.PrintJob, error) {
	if r.Qty < 0 || r.Qty > MaxQty {
		return cfg, label.PrintJob{}, label.ValidationError("request", "qty %d must be between 1 and %d", r.Qty, MaxQty)
	}
	t, err := r.template(p)
	if err != nil {
		return cfg, label.PrintJob{}, err
	}

	size := def
	qty := r.Qty
	if p != nil {
		cfg = p.Configure(cfg)
		size = SheetRequest{WidthMM: p.WidthMM, HeightMM: p.HeightMM}
		if qty == 0 {
			qty = p.Qty
		}
	}
	if r.Layout != nil && r.Layout.Width > 0 && r.Layout.Height > 0 {
		size = SheetRequest{WidthMM: r.Layout.Width, HeightMM: r.Layout.Height}
	}
	if r.Sheet != nil {
		size = *r.Sheet
	}

	if t == label.CustomLayout && r.Layout != nil && r.Layout.Source != "" {
		return r.sourceJob(cfg, size, qty)
	}

	sheet, err := cfg.Sheet(size.WidthMM, size.HeightMM)
	if err != nil {
		return cfg, label.PrintJob{}, err
	}
	job := label.PrintJob{Template: t, Sheet: sheet, Repeat: qty}

	if t == label.CustomLayout {
		if r.Layout == nil {
			return cfg, label.PrintJob{}, label.ValidationError("request", "custom template needs a layout")
		}
		for i, e := range r.Layout.Elements {
			el, err := e.Element(cfg)
			if err != nil {
				return cfg, label.PrintJob{}, fmt.Errorf("element %d:\n%w", i, err)
			}
			job.Elements = append(job.Elements, el)
		}
	} else {
		for _, it := range r.items() {
			job.Items = append(job.Items, it.Items()...)
		}
	}

	if err := job.Validate(); err != nil {
		return cfg, label.PrintJob{}, err
	}
	return cfg, job, nil
}

// sourceJob compiles layout source text. A request sheet overrides the size it declares.
func (r *PrintRequest) sourceJob(cfg label.Config, size SheetRequest, qty int) (label.Config, label.PrintJob, error) {
	l, err := layoutdsl.ParseString(r.Layout.Source)
	if err != nil {
		return cfg, label.PrintJob{}, label.ValidationError("layout", "%v", err)
	}
	if r.Sheet != nil {
		l.Width = strconv.FormatFloat(size.WidthMM, 'f', -1, 64)
		l.Height = strconv.FormatFloat(size.HeightMM, 'f', -1, 64)
	}
	if qty > 0 {
		l.Qty = qty
	}
	var item label.Item
	if items := r.items(); len(items) > 0 {
		item = items[0].Items()[0]
	}
	job, err := l.Job(cfg, item)
	return cfg, job, err
}

func (r *PrintRequest) items() []ItemRequest {
	if len(r.Items) > 0 {
		return r.Items
	}
	return r.PrintList
}

// Element maps one custom layout element. Unset sizes take the configured defaults.
func (e ElementRequest) Element(cfg label.Config) (label.Element, error) {
	or := func(v, def int) int {
		if v > 0 {
			return v
		}
		return def
	}
	switch strings.ToLower(e.Type) {
	case "text":
		el := label.NewText(e.X, e.Y, or(e.FontSize, cfg.FontHeight), e.Text)
		el.Text.Font = e.FontName
		el.Text.Legacy = e.Legacy
		return el, nil
	case "qrcode", "qr":
		if e.Size > 10 {
			return label.Element{}, label.ValidationError("request", "qr size %d must be between 1 and 10", e.Size)
		}
		el := label.NewQRCode(e.X, e.Y, or(e.Size, cfg.QRModuleSize), firstNonEmpty(e.Content, e.Text))
		el.QRCode.ECC = strings.ToUpper(e.ECC)
		if !label.ValidECC(el.QRCode.ECC) {
			return label.Element{}, label.ValidationError("request", "ecc %q must be one of L, M, Q or H", e.ECC)
		}
		return el, nil
	case "barcode":
		human := cfg.BarcodeHuman
		if e.Human != nil {
			human = *e.Human
		}
		return label.NewBarcode(e.X, e.Y, label.Barcode{
			Symbology:     firstNonEmpty(e.BarcodeType, cfg.BarcodeSymbology),
			Height:        or(e.Height, cfg.BarcodeHeight),
			HumanReadable: human,
			Narrow:        or(e.Narrow, cfg.BarcodeNarrow),
			Wide:          or(e.Wide, cfg.BarcodeWide),
			Content:       firstNonEmpty(e.Content, e.Text),
		}), nil
	case "box":
		return label.NewBox(e.X, e.Y, e.X2, e.Y2, e.Thickness), nil
	case "bar", "line":
		return label.NewBar(e.X, e.Y, e.Width, e.Height), nil
	case "cross":
		return label.NewCrossMark(e.X, e.Y, e.Size, e.Thickness), nil
	default:
		return label.Element{}, label.ValidationError("request", "unknown element type %q", e.Type)
	}
}
