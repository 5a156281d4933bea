package preset

import (
	"time"

	"github.com/google/uuid"

	"tomgalvin.uk/tsclabel/internal/label"
)

// Preset is a named label stock: template, sheet size and the per-stock overrides that a
// request can refer to by name instead of spelling them out.
type Preset struct {
	Id        int
	Uuid      uuid.UUID
	Name      string
	CreatedAt time.Time

	Template label.Template
	WidthMM  float64
	HeightMM float64

	// Zero keeps the configured value.
	FontHeight   int
	QRModuleSize int
	Qty          int
}

func New(name string, t label.Template, widthMM, heightMM float64) *Preset {
	return &Preset{
		Uuid:      uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Template:  t,
		WidthMM:   widthMM,
		HeightMM:  heightMM,
		Qty:       1,
	}
}

func (p *Preset) Validate() error {
	if p.Name == "" {
		return label.ValidationError("preset", "name is required")
	}
	if p.Template.Capacity() == 0 && p.Template != label.CustomLayout {
		return label.ValidationError("preset", "unknown template %d", int(p.Template))
	}
	if !(p.WidthMM > 0) || !(p.HeightMM > 0) {
		return label.ValidationError("preset", "%s: %gx%gmm", label.InvalidDimension, p.WidthMM, p.HeightMM)
	}
	if p.FontHeight < 0 || p.QRModuleSize < 0 || p.QRModuleSize > 10 || p.Qty < 0 {
		return label.ValidationError("preset", "font height, qr module size and qty must be in range")
	}
	return nil
}

// Configure returns cfg with the preset's overrides applied.
func (p *Preset) Configure(cfg label.Config) label.Config {
	if p.FontHeight > 0 {
		cfg.FontHeight = p.FontHeight
	}
	if p.QRModuleSize > 0 {
		cfg.QRModuleSize = p.QRModuleSize
	}
	return cfg
}

// Sheet builds the preset's sheet with the ratio and margin of cfg.
func (p *Preset) Sheet(cfg label.Config) (label.LabelSheet, error) {
	return cfg.Sheet(p.WidthMM, p.HeightMM)
}
