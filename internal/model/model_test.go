package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/preset"
)

var defaultSheet = SheetRequest{WidthMM: 100, HeightMM: 90}

func decode(t *testing.T, body string) *PrintRequest {
	t.Helper()
	r, err := Decode([]byte(body))
	require.NoError(t, err)
	return r
}

func TestJobFromItems(t *testing.T) {
	r := decode(t, `{
		"template": "qrcode-with-text",
		"items": [{"text": "A", "qr_content": "qa"}, {"text": "B", "qrcode": "qb"}],
		"sheet": {"width_mm": 50, "height_mm": 30},
		"qty": 2
	}`)

	_, job, err := r.Job(label.DefaultConfig(), nil, defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, label.QRWithText, job.Template)
	assert.Equal(t, 400, job.Sheet.WidthDots())
	assert.Equal(t, 2, job.Copies())
	assert.Equal(t, []label.Item{{Text: "A", QRContent: "qa"}, {Text: "B", QRContent: "qb"}}, job.Items)
}

func TestJobLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want label.Template
	}{
		{"numeric type", `{"type": 3, "print_list": [{"text": "JJG01"}]}`, label.SixCellGrid},
		{"quoted type", `{"type": "2", "print_list": [{"text": "C1", "qr_content": "C1"}]}`, label.QRWithText},
		{"double text pairs", `{"template": "double-text", "print_list": [{"text1": "a"}, {"text2": "b"}]}`, label.DoubleText},
		{"barcode alias", `{"template": "barcode", "print_list": [{"barcode": "123"}]}`, label.BarcodeWithText},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, job, err := decode(t, tc.body).Job(label.DefaultConfig(), nil, defaultSheet)
			require.NoError(t, err)
			assert.Equal(t, tc.want, job.Template)
			assert.Equal(t, 800, job.Sheet.WidthDots())
		})
	}
}

func TestJobValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no template", `{"items": [{"text": "a"}]}`},
		{"unknown template", `{"template": "poster", "items": [{"text": "a"}]}`},
		{"empty items", `{"template": "single-text"}`},
		{"missing qr", `{"template": "qrcode-with-text", "items": [{"text": "a"}]}`},
		{"qty too large", `{"template": "single-text", "items": [{"text": "a"}], "qty": 5000}`},
		{"custom without layout", `{"template": "custom"}`},
		{"unknown element", `{"template": "custom", "layout": {"elements": [{"type": "circle"}]}}`},
		{"bad layout source", `{"template": "custom", "layout": {"source": "label 40 x 30 { circle }"}}`},
		{"item line break", `{"template": "single-text", "items": [{"text": "line1\r\nPRINT 300,1"}]}`},
		{"ecc injection", `{"template": "custom", "layout": {"elements": [{"type": "qrcode", "content": "x", "ecc": "H,4,A,0,\"x\"\r\nPRINT 500,1"}]}}`},
		{"unknown ecc", `{"template": "custom", "layout": {"elements": [{"type": "qrcode", "content": "x", "ecc": "Z"}]}}`},
		{"text line break", `{"template": "custom", "layout": {"elements": [{"type": "text", "text": "line1\r\nPRINT 300,1"}]}}`},
		{"font name injection", `{"template": "custom", "layout": {"elements": [{"type": "text", "text": "a", "font_name": "3\",0,1,1,\"x\"\r\nPRINT 200,1"}]}}`},
		{"barcode type quote", `{"template": "custom", "layout": {"elements": [{"type": "barcode", "content": "1", "barcode_type": "128\""}]}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := decode(t, tc.body).Job(label.DefaultConfig(), nil, defaultSheet)
			require.Error(t, err)
			assert.True(t, label.IsKind(err, label.KindValidation), "got %v", err)
		})
	}

	_, _, err := decode(t, `{"template": "single-text", "items": [{"text": "a"}], "sheet": {"width_mm": 0, "height_mm": 30}}`).
		Job(label.DefaultConfig(), nil, defaultSheet)
	assert.True(t, label.IsKind(err, label.KindConfiguration))
}

func TestJobDoubleTextPairItems(t *testing.T) {
	r := decode(t, `{"template": "double-text", "print_list": [{"text1": "a", "text2": "b"}, {"text1": "c"}]}`)
	cfg, job, err := r.Job(label.DefaultConfig(), nil, defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, []label.Item{{Text: "a"}, {Text: "b"}, {Text: "c"}}, job.Items)

	sheets, err := label.Plan(cfg, job)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	require.Len(t, sheets[0].Elements, 2)
	assert.Equal(t, "a", sheets[0].Elements[0].Text.Content)
	assert.Equal(t, "b", sheets[0].Elements[1].Text.Content)
}

func TestItemRequestItems(t *testing.T) {
	assert.Equal(t, []label.Item{{Text: "x", QRContent: "q"}},
		ItemRequest{Text: "x", Text1: "ignored", Text2: "ignored", QRCode: "q"}.Items())
	assert.Equal(t, []label.Item{{Text: "b"}}, ItemRequest{Text2: "b"}.Items())
	assert.Equal(t, []label.Item{{Text: "a", BarcodeContent: "1"}, {Text: "b"}},
		ItemRequest{Text1: "a", Text2: "b", Barcode: "1"}.Items())
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode([]byte(`{"template": "single-text", "colour": "red"}`))
	assert.True(t, label.IsKind(err, label.KindValidation))
}

func TestJobCustomElements(t *testing.T) {
	r := decode(t, `{
		"template": "custom",
		"layout": {"width": 60, "height": 40, "elements": [
			{"type": "text", "x": 100, "y": 100, "text": "库存盘点标签", "font_size": 56},
			{"type": "qrcode", "x": 300, "y": 50, "content": "https://example.com", "size": 4},
			{"type": "barcode", "x": 20, "y": 200, "content": "ABC123", "barcode_type": "39"},
			{"type": "box", "x": 0, "y": 0, "x2": 470, "y2": 310, "thickness": 3},
			{"type": "cross", "x": 240, "y": 160, "size": 30}
		]},
		"qty": 3
	}`)
	cfg := label.DefaultConfig()
	_, job, err := r.Job(cfg, nil, defaultSheet)
	require.NoError(t, err)

	assert.Equal(t, 480, job.Sheet.WidthDots())
	assert.Equal(t, 3, job.Copies())
	require.Len(t, job.Elements, 5)
	assert.Equal(t, label.NewText(100, 100, 56, "库存盘点标签"), job.Elements[0])
	assert.Equal(t, 4, job.Elements[1].QRCode.ModuleSize)
	assert.Equal(t, "39", job.Elements[2].Barcode.Symbology)
	assert.Equal(t, cfg.BarcodeHeight, job.Elements[2].Barcode.Height)
	assert.Equal(t, label.NewCrossMark(240, 160, 30, 0), job.Elements[4])
}

func TestJobCustomSource(t *testing.T) {
	r := decode(t, `{
		"template": "custom",
		"layout": {"source": "label 50 x 30 qty 2 {\n text 10,10 \"{text}\"\n}"},
		"items": [{"text": "hello"}],
		"sheet": {"width_mm": 40, "height_mm": 30}
	}`)
	_, job, err := r.Job(label.DefaultConfig(), nil, defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, 320, job.Sheet.WidthDots())
	assert.Equal(t, 2, job.Copies())
	assert.Equal(t, "hello", job.Elements[0].Text.Content)
}

func TestJobWithPreset(t *testing.T) {
	p := preset.New("bins", label.QRWithText, 50, 30)
	p.FontHeight, p.Qty = 24, 4

	cfg, job, err := decode(t, `{"preset": "bins", "items": [{"text": "a", "qr_content": "q"}]}`).
		Job(label.DefaultConfig(), p, defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.FontHeight)
	assert.Equal(t, label.QRWithText, job.Template)
	assert.Equal(t, 400, job.Sheet.WidthDots())
	assert.Equal(t, 4, job.Copies())

	// explicit request fields win over the preset
	_, job, err = decode(t, `{"preset": "bins", "template": "single-text", "qty": 1, "items": [{"text": "a"}]}`).
		Job(label.DefaultConfig(), p, defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, label.SingleText, job.Template)
	assert.Equal(t, 1, job.Copies())
}

func TestFromError(t *testing.T) {
	r := FromError(label.EncodingError("charset", "no mapping"))
	assert.Equal(t, "encoding", r.Kind)
	assert.Equal(t, "error", r.Status)

	assert.Empty(t, FromError(errors.New("boom")).Kind)
}

func TestPresetRequest(t *testing.T) {
	p, err := PresetRequest{Name: "x", Template: "grid", WidthMM: 100, HeightMM: 90}.Preset()
	require.NoError(t, err)
	assert.Equal(t, label.SixCellGrid, p.Template)
	assert.Equal(t, 1, p.Qty)

	_, err = PresetRequest{Name: "x", Template: "grid"}.Preset()
	assert.True(t, label.IsKind(err, label.KindValidation))
}
