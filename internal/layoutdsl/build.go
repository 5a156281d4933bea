package layoutdsl

import (
	"math"
	"strconv"
	"strings"

	"tomgalvin.uk/tsclabel/internal/label"
)

// Job compiles the layout into a CustomLayout print job. Placeholders {text}, {qr} and
// {barcode} in payloads are replaced with the item's fields.
func (l *Layout) Job(cfg label.Config, item label.Item) (label.PrintJob, error) {
	w, err := parseMM(l.Width)
	if err != nil {
		return label.PrintJob{}, err
	}
	h, err := parseMM(l.Height)
	if err != nil {
		return label.PrintJob{}, err
	}
	sheet, err := cfg.Sheet(w, h)
	if err != nil {
		return label.PrintJob{}, err
	}

	expand := strings.NewReplacer("{text}", item.Text, "{qr}", item.QRContent, "{barcode}", item.BarcodeContent)
	elements := make([]label.Element, 0, len(l.Statements))
	for _, s := range l.Statements {
		el, err := s.element(cfg, expand)
		if err != nil {
			return label.PrintJob{}, err
		}
		elements = append(elements, el)
	}

	job := label.PrintJob{
		Template: label.CustomLayout,
		Sheet:    sheet,
		Repeat:   l.Qty,
		Elements: elements,
	}
	if err := job.Validate(); err != nil {
		return label.PrintJob{}, err
	}
	return job, nil
}

// Jobs compiles one job per item, or a single job with empty placeholders when items is
// empty.
func (l *Layout) Jobs(cfg label.Config, items []label.Item) ([]label.PrintJob, error) {
	if len(items) == 0 {
		items = []label.Item{{}}
	}
	jobs := make([]label.PrintJob, 0, len(items))
	for _, it := range items {
		j, err := l.Job(cfg, it)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

type statementError struct {
	s *Statement
}

func (e statementError) fail(format string, args ...any) error {
	return label.ValidationError("layout", "%s: %s: "+format,
		append([]any{e.s.Pos, e.s.Kind}, args...)...)
}

func (s *Statement) element(cfg label.Config, expand *strings.Replacer) (label.Element, error) {
	bad := statementError{s}
	coords := make([]int, len(s.Coords))
	for i, c := range s.Coords {
		v, err := dots(c, cfg.DPIRatio)
		if err != nil {
			return label.Element{}, bad.fail("coordinate %q: %v", c, err)
		}
		coords[i] = v
	}
	opts := options{stmt: s}
	content := ""
	if s.Content != nil {
		content = expand.Replace(string(*s.Content))
	}

	want := map[string]int{"text": 2, "qrcode": 2, "barcode": 2, "box": 4, "bar": 4, "cross": 2}[s.Kind]
	if len(coords) != want {
		return label.Element{}, bad.fail("needs %d coordinates, got %d", want, len(coords))
	}
	needsContent := s.Kind == "text" || s.Kind == "qrcode" || s.Kind == "barcode"
	if needsContent != (s.Content != nil) {
		if needsContent {
			return label.Element{}, bad.fail("needs a quoted payload")
		}
		return label.Element{}, bad.fail("takes no payload")
	}

	x, y := coords[0], coords[1]
	var el label.Element
	switch s.Kind {
	case "text":
		el = label.NewText(x, y, opts.dots("size", cfg.FontHeight, cfg.DPIRatio), content)
		el.Text.Font = opts.text("font", "")
		el.Text.Legacy = opts.flag("legacy", false)
	case "qrcode":
		el = label.NewQRCode(x, y, opts.int("module", cfg.QRModuleSize), content)
		el.QRCode.ECC = strings.ToUpper(opts.text("ecc", ""))
		if !label.ValidECC(el.QRCode.ECC) {
			return label.Element{}, bad.fail("ecc %q must be one of L, M, Q, H", el.QRCode.ECC)
		}
	case "barcode":
		el = label.NewBarcode(x, y, label.Barcode{
			Symbology:     opts.text("type", cfg.BarcodeSymbology),
			Height:        opts.dots("height", cfg.BarcodeHeight, cfg.DPIRatio),
			HumanReadable: opts.flag("human", cfg.BarcodeHuman),
			Narrow:        opts.int("narrow", cfg.BarcodeNarrow),
			Wide:          opts.int("wide", cfg.BarcodeWide),
			Content:       content,
		})
	case "box":
		el = label.NewBox(x, y, coords[2], coords[3], opts.int("thickness", 0))
	case "bar":
		el = label.NewBar(x, y, coords[2], coords[3])
	case "cross":
		el = label.NewCrossMark(x, y, opts.dots("size", 40, cfg.DPIRatio), opts.int("thickness", 0))
	}
	if err := opts.err(); err != nil {
		return label.Element{}, err
	}
	return el, nil
}

// options reads statement options, remembering the first malformed value and any
// keys that were never asked for.
type options struct {
	stmt    *Statement
	used    map[string]bool
	invalid error
}

func (o *options) lookup(key string) (*Option, bool) {
	if o.used == nil {
		o.used = map[string]bool{}
	}
	o.used[key] = true
	for _, opt := range o.stmt.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return nil, false
}

func (o *options) text(key, def string) string {
	opt, ok := o.lookup(key)
	if !ok || opt.Value == nil {
		return def
	}
	return opt.Value.Text()
}

func (o *options) int(key string, def int) int {
	opt, ok := o.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(opt.Value.Text())
	if err != nil || v <= 0 {
		o.setInvalid(key, opt)
		return def
	}
	return v
}

func (o *options) dots(key string, def int, ratio float64) int {
	opt, ok := o.lookup(key)
	if !ok {
		return def
	}
	v, err := dots(opt.Value.Text(), ratio)
	if err != nil || v <= 0 {
		o.setInvalid(key, opt)
		return def
	}
	return v
}

func (o *options) flag(key string, def bool) bool {
	opt, ok := o.lookup(key)
	if !ok {
		return def
	}
	if opt.Value == nil {
		return true
	}
	v, err := strconv.ParseBool(opt.Value.Text())
	if err != nil {
		o.setInvalid(key, opt)
		return def
	}
	return v
}

func (o *options) setInvalid(key string, opt *Option) {
	if o.invalid == nil {
		o.invalid = statementError{o.stmt}.fail("invalid %s %q", key, opt.Value.Text())
	}
}

func (o *options) err() error {
	if o.invalid != nil {
		return o.invalid
	}
	for _, opt := range o.stmt.Options {
		if !o.used[opt.Key] {
			return statementError{o.stmt}.fail("unknown option %q", opt.Key)
		}
	}
	return nil
}

// dots converts "12", "12dots" or "1.5mm" to printer dots.
func dots(s string, ratio float64) (int, error) {
	if v, ok := strings.CutSuffix(s, "mm"); ok {
		mm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, err
		}
		if mm == 0 {
			return 0, nil
		}
		return label.MMToDots(mm, ratio)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "dots"), 64)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(v)), nil
}

func parseMM(s string) (float64, error) {
	if strings.HasSuffix(s, "dots") {
		return 0, label.ValidationError("layout", "label size %q must be in mm", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "mm"), 64)
	if err != nil {
		return 0, label.ValidationError("layout", "label size %q: %v", s, err)
	}
	return v, nil
}
