package layoutdsl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomgalvin.uk/tsclabel/internal/label"
)

const sampleLayout = `
# shelf label
label 100mm x 90mm qty 2 {
  text 40,40 size=48 "Bin {text}"
  text 40,100 font="3" legacy "ASCII"
  qrcode 560,40 module=6 ecc=m "{qr}"
  barcode 40,300 height=10mm type=128 human=false "{barcode}"; bar 0,360,800,2
  box 1mm,1mm,99mm,89mm thickness=3
  // centre mark
  cross 400,360 size=5mm
}
`

func TestParseLayout(t *testing.T) {
	l, err := ParseString(sampleLayout)
	require.NoError(t, err)

	assert.Equal(t, "100mm", l.Width)
	assert.Equal(t, "90mm", l.Height)
	assert.Equal(t, 2, l.Qty)
	require.Len(t, l.Statements, 7)

	kinds := make([]string, len(l.Statements))
	for i, s := range l.Statements {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []string{"text", "text", "qrcode", "barcode", "bar", "box", "cross"}, kinds)

	legacy := l.Statements[1]
	require.Len(t, legacy.Options, 2)
	assert.Equal(t, "3", legacy.Options[0].Value.Text())
	assert.Equal(t, "legacy", legacy.Options[1].Key)
	assert.Nil(t, legacy.Options[1].Value)
	assert.Equal(t, StringLiteral("ASCII"), *legacy.Content)
}

func TestLayoutJob(t *testing.T) {
	l, err := ParseString(sampleLayout)
	require.NoError(t, err)

	cfg := label.DefaultConfig()
	job, err := l.Job(cfg, label.Item{Text: "A-01", QRContent: "https://example.com/A-01", BarcodeContent: "A01"})
	require.NoError(t, err)

	assert.Equal(t, label.CustomLayout, job.Template)
	assert.Equal(t, 2, job.Copies())
	assert.Equal(t, 800, job.Sheet.WidthDots())
	require.Len(t, job.Elements, 7)

	text := job.Elements[0]
	assert.Equal(t, label.NewText(40, 40, 48, "Bin A-01"), text)

	legacy := job.Elements[1].Text
	assert.Equal(t, "3", legacy.Font)
	assert.True(t, legacy.Legacy)
	assert.Equal(t, cfg.FontHeight, legacy.FontHeight)

	qr := job.Elements[2].QRCode
	assert.Equal(t, 6, qr.ModuleSize)
	assert.Equal(t, "M", qr.ECC)
	assert.Equal(t, "https://example.com/A-01", qr.Content)

	bc := job.Elements[3].Barcode
	assert.Equal(t, 80, bc.Height)
	assert.Equal(t, "128", bc.Symbology)
	assert.False(t, bc.HumanReadable)
	assert.Equal(t, "A01", bc.Content)

	assert.Equal(t, label.NewBar(0, 360, 800, 2), job.Elements[4])
	assert.Equal(t, label.NewBox(8, 8, 792, 712, 3), job.Elements[5])
	assert.Equal(t, label.NewCrossMark(400, 360, 40, 0), job.Elements[6])
}

func TestLayoutJobsPerItem(t *testing.T) {
	l, err := ParseString(`label 40 x 30 { text 10,10 "{text}" }`)
	require.NoError(t, err)

	jobs, err := l.Jobs(label.DefaultConfig(), []label.Item{{Text: "one"}, {Text: "two"}})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "one", jobs[0].Elements[0].Text.Content)
	assert.Equal(t, "two", jobs[1].Elements[0].Text.Content)
	assert.Equal(t, 1, jobs[1].Copies())
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"missing payload", `label 40 x 30 { text 10,10 }`, "needs a quoted payload"},
		{"stray payload", `label 40 x 30 { bar 0,0,10,10 "x" }`, "takes no payload"},
		{"coordinate count", `label 40 x 30 { box 0,0,10 }`, "needs 4 coordinates"},
		{"unknown option", `label 40 x 30 { text 0,0 colour=red "x" }`, `unknown option "colour"`},
		{"bad number", `label 40 x 30 { qrcode 0,0 module=big "x" }`, `invalid module "big"`},
		{"bad ecc", `label 40 x 30 { qrcode 0,0 ecc=X "x" }`, "must be one of"},
		{"empty payload", `label 40 x 30 { text 0,0 "{text}" }`, "text is required"},
		{"size in dots", `label 400dots x 30 { text 0,0 "x" }`, "must be in mm"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := ParseString(tc.layout)
			require.NoError(t, err)
			_, err = l.Job(label.DefaultConfig(), label.Item{})
			require.Error(t, err)
			assert.True(t, label.IsKind(err, label.KindValidation))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("bad.lbl", strings.NewReader("label 40 x 30 { circle 1,2 }"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.lbl")
}

func TestDots(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"12dots", 12},
		{"12.7", 12},
		{"0mm", 0},
		{"2.5mm", 20},
	}
	for _, tc := range tests {
		got, err := dots(tc.in, 8)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
