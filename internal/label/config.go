package label

// Font names a printer-resident TEXT font. CellHeight is the glyph height in dots at
// multiplier 1; Scalable fonts take their multipliers in points instead.
type Font struct {
	Name       string
	CellHeight int
	Scalable   bool
}

// Config is the process-wide layout and encoding configuration. It is passed explicitly
// to every planner and encoder call.
type Config struct {
	DPIRatio   float64
	MarginDots int

	FontHeight       int
	QRModuleSize     int
	QRSpacing        int
	BarcodeHeight    int
	BarcodeSpacing   int
	BarcodeSymbology string
	BarcodeNarrow    int
	BarcodeWide      int
	BarcodeHuman     bool

	GridFontHeight   int
	GridQRModuleSize int
	GridSpacing      int
	GridInnerMargin  int

	// QRModel and QRMask are appended to QRCODE when set ("M1"/"M2", "S0".."S8").
	QRModel string
	QRMask  string

	// LineThickness is used for BOX and cross marks that do not set their own.
	LineThickness int

	GapMM   float64
	Speed   int
	Density int

	Charset    CharsetPolicy
	UTF8Font   Font
	LegacyFont Font

	// Raster sends each sheet as a BITMAP image instead of TEXT/QRCODE/BARCODE commands.
	Raster bool
}

// DefaultConfig matches a 203 dpi TSPL printer loaded with 100x90mm gap stock.
func DefaultConfig() Config {
	return Config{
		DPIRatio:   8,
		MarginDots: 20,

		FontHeight:       48,
		QRModuleSize:     8,
		QRSpacing:        20,
		BarcodeHeight:    80,
		BarcodeSpacing:   20,
		BarcodeSymbology: "128",
		BarcodeNarrow:    2,
		BarcodeWide:      2,

		GridFontHeight:   24,
		GridQRModuleSize: 4,
		GridSpacing:      12,
		GridInnerMargin:  10,

		LineThickness: 2,

		GapMM:   2,
		Speed:   4,
		Density: 10,

		Charset:    DefaultCharsetPolicy(),
		UTF8Font:   Font{Name: "TSS24.BF2", CellHeight: 24},
		LegacyFont: Font{Name: "3", CellHeight: 24},
	}
}

// Validate reports the first invalid knob as a configuration error.
func (c Config) Validate() error {
	if !(c.DPIRatio > 0) {
		return ConfigurationError("config", "%s: dpi ratio %g must be positive", InvalidDimension, c.DPIRatio)
	}
	if c.MarginDots < 0 {
		return ConfigurationError("config", "margin %d dots must not be negative", c.MarginDots)
	}
	positive := []struct {
		name  string
		value int
	}{
		{"font height", c.FontHeight},
		{"qr module size", c.QRModuleSize},
		{"barcode height", c.BarcodeHeight},
		{"barcode narrow", c.BarcodeNarrow},
		{"barcode wide", c.BarcodeWide},
		{"grid font height", c.GridFontHeight},
		{"grid qr module size", c.GridQRModuleSize},
		{"speed", c.Speed},
		{"line thickness", c.LineThickness},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return ConfigurationError("config", "%s %d must be positive", p.name, p.value)
		}
	}
	if c.QRModuleSize > 10 || c.GridQRModuleSize > 10 {
		return ConfigurationError("config", "qr module size must be between 1 and 10")
	}
	if c.QRSpacing < 0 || c.BarcodeSpacing < 0 || c.GridSpacing < 0 || c.GridInnerMargin < 0 {
		return ConfigurationError("config", "spacings must not be negative")
	}
	if c.GapMM < 0 {
		return ConfigurationError("config", "gap %gmm must not be negative", c.GapMM)
	}
	if c.Density < 0 || c.Density > 15 {
		return ConfigurationError("config", "density %d must be between 0 and 15", c.Density)
	}
	if c.UTF8Font.Name == "" || c.LegacyFont.Name == "" {
		return ConfigurationError("config", "font names must not be empty")
	}
	if (!c.UTF8Font.Scalable && c.UTF8Font.CellHeight <= 0) || (!c.LegacyFont.Scalable && c.LegacyFont.CellHeight <= 0) {
		return ConfigurationError("config", "bitmap fonts need a positive cell height")
	}
	for _, n := range []struct{ field, value string }{
		{"utf8 font", c.UTF8Font.Name},
		{"legacy font", c.LegacyFont.Name},
		{"barcode symbology", c.BarcodeSymbology},
	} {
		if err := checkName(n.field, n.value); err != nil {
			return ConfigurationError("config", "%v", err)
		}
	}
	if c.QRModel != "" && c.QRModel != "M1" && c.QRModel != "M2" {
		return ConfigurationError("config", "qr model %q must be M1 or M2", c.QRModel)
	}
	if c.QRMask != "" && (len(c.QRMask) != 2 || c.QRMask[0] != 'S' || c.QRMask[1] < '0' || c.QRMask[1] > '8') {
		return ConfigurationError("config", "qr mask %q must be S0 to S8", c.QRMask)
	}
	return nil
}

// Sheet builds a LabelSheet of the given size using the configured ratio and margin.
func (c Config) Sheet(widthMM, heightMM float64) (LabelSheet, error) {
	return NewLabelSheet(widthMM, heightMM, c.DPIRatio, c.MarginDots)
}
