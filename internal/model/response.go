package model

import (
	"time"

	"github.com/google/uuid"

	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/preset"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type PrintResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	JobID    uuid.UUID `json:"job_id"`
	Sheets   int       `json:"sheets"`
	Commands int       `json:"commands"`
}

type ErrorResponse struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail"`
	// SentSheets is set when a transport failure interrupted a batch.
	SentSheets *int `json:"sent_sheets,omitempty"`
}

func FromError(err error) ErrorResponse {
	r := ErrorResponse{Status: "error", Detail: err.Error()}
	if k := label.KindOf(err); k != 0 {
		r.Kind = k.String()
	}
	return r
}

// TestRequest names the device for a connection test. Ip is what older clients send.
type TestRequest struct {
	Device string `json:"device,omitempty"`
	Ip     string `json:"ip,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type PresetRequest struct {
	Name         string  `json:"name"`
	Template     string  `json:"template"`
	WidthMM      float64 `json:"width_mm"`
	HeightMM     float64 `json:"height_mm"`
	FontHeight   int     `json:"font_height,omitempty"`
	QRModuleSize int     `json:"qr_module_size,omitempty"`
	Qty          int     `json:"qty,omitempty"`
}

func (r PresetRequest) Preset() (*preset.Preset, error) {
	t, err := label.ParseTemplate(r.Template)
	if err != nil {
		return nil, err
	}
	p := preset.New(r.Name, t, r.WidthMM, r.HeightMM)
	p.FontHeight = r.FontHeight
	p.QRModuleSize = r.QRModuleSize
	if r.Qty > 0 {
		p.Qty = r.Qty
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type PresetResponse struct {
	Uuid         uuid.UUID `json:"uuid"`
	Name         string    `json:"name"`
	Template     string    `json:"template"`
	WidthMM      float64   `json:"width_mm"`
	HeightMM     float64   `json:"height_mm"`
	FontHeight   int       `json:"font_height,omitempty"`
	QRModuleSize int       `json:"qr_module_size,omitempty"`
	Qty          int       `json:"qty"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromPreset(p preset.Preset) PresetResponse {
	return PresetResponse{
		Uuid:         p.Uuid,
		Name:         p.Name,
		Template:     p.Template.String(),
		WidthMM:      p.WidthMM,
		HeightMM:     p.HeightMM,
		FontHeight:   p.FontHeight,
		QRModuleSize: p.QRModuleSize,
		Qty:          p.Qty,
		CreatedAt:    p.CreatedAt,
	}
}
