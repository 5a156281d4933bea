package label

import (
	"unicode/utf8"
)

// QRModules is the module count assumed for every QR code (a version 4 symbol).
const QRModules = 33

// QRPixelSize is the printed edge length of a QR code in dots.
func QRPixelSize(moduleSize int) int {
	return moduleSize * QRModules
}

// BarcodeWidth approximates the printed width of a linear barcode in dots.
func BarcodeWidth(content string) int {
	return utf8.RuneCountInString(content)*10 + 40
}

// centre places size inside [start, start+span). Content larger than the span is
// left-aligned at start.
func centre(start, span, size int) int {
	if size > span {
		return start
	}
	return start + (span-size)/2
}

// Plan turns a job into the ordered list of sheets to print. It validates the job and the
// configuration first and performs no I/O.
func Plan(cfg Config, job PrintJob) ([]PlannedSheet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	if job.Template == CustomLayout {
		return []PlannedSheet{{
			Sheet:    job.Sheet,
			Elements: cloneElements(job.Elements),
			Copies:   job.Copies(),
		}}, nil
	}

	groups, err := Group(job.Items, job.Template.Capacity())
	if err != nil {
		return nil, err
	}

	sheets := make([]PlannedSheet, 0, len(groups)*job.Copies())
	for _, g := range groups {
		for range job.Copies() {
			sheets = append(sheets, PlannedSheet{
				Sheet:    job.Sheet,
				Elements: PlaceGroup(cfg, job.Template, job.Sheet, g),
				Copies:   1,
			})
		}
	}
	return sheets, nil
}

// PlaceGroup lays out one group of items (at most the template's capacity) on a sheet.
// Items beyond the capacity are ignored.
func PlaceGroup(cfg Config, t Template, sheet LabelSheet, group []Item) []Element {
	if c := t.Capacity(); c > 0 && len(group) > c {
		group = group[:c]
	}
	switch t {
	case SingleText:
		return placeSingleText(cfg, sheet, group)
	case DoubleText:
		return placeDoubleText(cfg, sheet, group)
	case QRWithText:
		return placeQRWithText(cfg, sheet, group)
	case BarcodeWithText:
		return placeBarcodeWithText(cfg, sheet, group)
	case SixCellGrid:
		return placeSixCellGrid(cfg, sheet, group)
	default:
		return nil
	}
}

func placeSingleText(cfg Config, sheet LabelSheet, group []Item) []Element {
	if len(group) == 0 {
		return nil
	}
	m, fh := sheet.MarginDots, cfg.FontHeight
	tw := EstimateWidth(group[0].Text, fh)
	return []Element{
		NewText(centre(m, sheet.EffectiveWidth(), tw), centre(m, sheet.EffectiveHeight(), fh), fh, group[0].Text),
	}
}

// halfSlot returns the top and height of slot i (0 or 1) when the effective height is
// split into two equal halves.
func halfSlot(sheet LabelSheet, i int) (int, int) {
	half := sheet.EffectiveHeight() / 2
	return sheet.MarginDots + i*half, half
}

// stackSlot is the vertical span a code-and-caption stack is centred in. A lone item
// takes the whole effective height; a pair splits it like DoubleText.
func stackSlot(sheet LabelSheet, i, n int) (int, int) {
	if n < 2 {
		return sheet.MarginDots, sheet.EffectiveHeight()
	}
	return halfSlot(sheet, i)
}

func placeDoubleText(cfg Config, sheet LabelSheet, group []Item) []Element {
	m, fh := sheet.MarginDots, cfg.FontHeight
	elements := make([]Element, 0, len(group))
	for i, it := range group {
		top, half := halfSlot(sheet, i)
		tw := EstimateWidth(it.Text, fh)
		elements = append(elements, NewText(centre(m, sheet.EffectiveWidth(), tw), centre(top, half, fh), fh, it.Text))
	}
	return elements
}

func placeQRWithText(cfg Config, sheet LabelSheet, group []Item) []Element {
	m, fh := sheet.MarginDots, cfg.FontHeight
	qr := QRPixelSize(cfg.QRModuleSize)
	elements := make([]Element, 0, 2*len(group))
	for i, it := range group {
		top, span := stackSlot(sheet, i, len(group))
		total := qr
		if it.Text != "" {
			total += cfg.QRSpacing + fh
		}
		y := centre(top, span, total)
		elements = append(elements, NewQRCode(centre(m, sheet.EffectiveWidth(), qr), y, cfg.QRModuleSize, it.QRContent))
		if it.Text != "" {
			tw := EstimateWidth(it.Text, fh)
			elements = append(elements, NewText(centre(m, sheet.EffectiveWidth(), tw), y+qr+cfg.QRSpacing, fh, it.Text))
		}
	}
	return elements
}

func placeBarcodeWithText(cfg Config, sheet LabelSheet, group []Item) []Element {
	m, fh, bh := sheet.MarginDots, cfg.FontHeight, cfg.BarcodeHeight
	elements := make([]Element, 0, 2*len(group))
	for i, it := range group {
		top, span := stackSlot(sheet, i, len(group))
		total := bh
		if it.Text != "" {
			total += cfg.BarcodeSpacing + fh
		}
		y := centre(top, span, total)
		bw := BarcodeWidth(it.BarcodeContent)
		elements = append(elements, NewBarcode(centre(m, sheet.EffectiveWidth(), bw), y, Barcode{
			Symbology:     cfg.BarcodeSymbology,
			Height:        bh,
			HumanReadable: cfg.BarcodeHuman,
			Narrow:        cfg.BarcodeNarrow,
			Wide:          cfg.BarcodeWide,
			Content:       it.BarcodeContent,
		}))
		if it.Text != "" {
			tw := EstimateWidth(it.Text, fh)
			elements = append(elements, NewText(centre(m, sheet.EffectiveWidth(), tw), y+bh+cfg.BarcodeSpacing, fh, it.Text))
		}
	}
	return elements
}

// GridCell returns the top-left corner and size of cell i (0..5, row-major over two
// columns and three rows).
func GridCell(sheet LabelSheet, i int) (x, y, w, h int) {
	w = sheet.EffectiveWidth() / 2
	h = sheet.EffectiveHeight() / 3
	x = sheet.MarginDots + (i%2)*w
	y = sheet.MarginDots + (i/2)*h
	return x, y, w, h
}

func placeSixCellGrid(cfg Config, sheet LabelSheet, group []Item) []Element {
	fh := cfg.GridFontHeight
	qr := QRPixelSize(cfg.GridQRModuleSize)
	inner := cfg.GridInnerMargin
	elements := make([]Element, 0, 2*len(group))
	for i, it := range group {
		cx, cy, cw, ch := GridCell(sheet, i)
		payload := it.QRContent
		if payload == "" {
			payload = it.Text
		}
		tw := EstimateWidth(it.Text, fh)
		content := qr + cfg.GridSpacing + tw
		x := centre(cx+inner, cw-2*inner, content)
		elements = append(elements, NewQRCode(x, centre(cy, ch, qr), cfg.GridQRModuleSize, payload))
		if it.Text != "" {
			elements = append(elements, NewText(x+qr+cfg.GridSpacing, centre(cy, ch, fh), fh, it.Text))
		}
	}
	return elements
}

func cloneElements(in []Element) []Element {
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
