// Package config assembles the process configuration from defaults, TSCLABEL_*
// environment variables and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/model"
	"tomgalvin.uk/tsclabel/internal/preview"
	"tomgalvin.uk/tsclabel/internal/printer"
)

const EnvPrefix = "TSCLABEL_"

type Config struct {
	Listen   string
	Database string
	Device   string
	FontFile string

	SheetWidthMM  float64
	SheetHeightMM float64

	Timeout      time.Duration
	BLEChunkSize int

	Delay         time.Duration
	CooldownEvery int
	Cooldown      time.Duration

	CharsetMode string
	Forced      string

	// Label holds the layout and encoding knobs. Its Charset is filled in by LabelConfig.
	Label label.Config
}

func Default() Config {
	return Config{
		Listen:        ":8000",
		Database:      "app.db",
		FontFile:      preview.DefaultFont,
		SheetWidthMM:  100,
		SheetHeightMM: 90,
		Timeout:       5 * time.Second,
		CharsetMode:   "utf8",
		Forced:        label.DefaultForced,
		Label:         label.DefaultConfig(),
	}
}

// setting is one knob reachable from both the environment and the flags.
type setting struct {
	name  string
	usage string
	value pflag.Value
}

func (c *Config) settings() []setting {
	l := &c.Label
	return []setting{
		{"listen", "HTTP listen address", stringValue(&c.Listen)},
		{"db", "sqlite database holding presets", stringValue(&c.Database)},
		{"device", "default printer: tcp:host[:port], host:port, ble:NAME, usb:N, file:PATH or -", stringValue(&c.Device)},
		{"font-file", "font used for previews and raster mode (goregular, gomono or a path)", stringValue(&c.FontFile)},
		{"width", "default label width in mm", floatValue(&c.SheetWidthMM)},
		{"height", "default label height in mm", floatValue(&c.SheetHeightMM)},
		{"timeout", "connect and write timeout", durationValue(&c.Timeout)},
		{"ble-chunk", "largest single Bluetooth write in bytes", intValue(&c.BLEChunkSize)},
		{"delay", "pause between sheets", durationValue(&c.Delay)},
		{"cooldown-every", "add a cooldown pause every N sheets", intValue(&c.CooldownEvery)},
		{"cooldown", "length of the cooldown pause", durationValue(&c.Cooldown)},
		{"charset", "text path: utf8 or ascii", stringValue(&c.CharsetMode)},
		{"forced", "characters that always use the UTF-8 font", stringValue(&c.Forced)},

		{"dpi-ratio", "printer dots per mm (8 for 203 dpi, 12 for 300 dpi)", floatValue(&l.DPIRatio)},
		{"margin", "margin in dots", intValue(&l.MarginDots)},
		{"font-height", "text height in dots", intValue(&l.FontHeight)},
		{"qr-module", "QR module size in dots (1-10)", intValue(&l.QRModuleSize)},
		{"qr-model", "QR model parameter (M1, M2), empty to omit", stringValue(&l.QRModel)},
		{"qr-mask", "QR mask parameter (S0-S8), empty to omit", stringValue(&l.QRMask)},
		{"barcode-height", "barcode height in dots", intValue(&l.BarcodeHeight)},
		{"barcode-type", "barcode symbology", stringValue(&l.BarcodeSymbology)},
		{"line-thickness", "default BOX and cross mark thickness in dots", intValue(&l.LineThickness)},
		{"gap", "gap between labels in mm, 0 for continuous stock", floatValue(&l.GapMM)},
		{"speed", "print speed", intValue(&l.Speed)},
		{"density", "print density (0-15)", intValue(&l.Density)},
		{"utf8-font", "printer font used for UTF-8 text", stringValue(&l.UTF8Font.Name)},
		{"legacy-font", "printer font used for ASCII text", stringValue(&l.LegacyFont.Name)},
		{"raster", "send sheets as bitmaps instead of text commands", boolValue(&l.Raster)},
	}
}

// EnvName is the variable name of a setting, e.g. TSCLABEL_QR_MODULE.
func EnvName(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// LoadEnv applies every TSCLABEL_* variable found by lookup (os.LookupEnv when nil).
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, s := range c.settings() {
		v, ok := lookup(EnvName(s.name))
		if !ok {
			continue
		}
		if err := s.value.Set(v); err != nil {
			return label.ConfigurationError("config", "%s=%q: %v", EnvName(s.name), v, err)
		}
	}
	return nil
}

// BindFlags registers one flag per setting. The current values become the flag defaults,
// so call it after LoadEnv.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	for _, s := range c.settings() {
		fs.Var(s.value, s.name, s.usage)
	}
	if f := fs.Lookup("raster"); f != nil {
		f.NoOptDefVal = "true"
	}
}

// LabelConfig returns the validated layout and encoding configuration.
func (c *Config) LabelConfig() (label.Config, error) {
	cfg := c.Label
	mode, err := label.ParseCharsetMode(c.CharsetMode)
	if err != nil {
		return cfg, err
	}
	cfg.Charset.Mode = mode
	cfg.Charset.Forced = c.Forced
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.LabelConfig(); err != nil {
		return err
	}
	if _, err := c.Label.Sheet(c.SheetWidthMM, c.SheetHeightMM); err != nil {
		return err
	}
	if c.Timeout < 0 || c.Delay < 0 || c.Cooldown < 0 || c.CooldownEvery < 0 || c.BLEChunkSize < 0 {
		return label.ConfigurationError("config", "timeouts, pauses and sizes must not be negative")
	}
	return nil
}

func (c *Config) Throttle() printer.Throttle {
	return printer.Throttle{Delay: c.Delay, CooldownEvery: c.CooldownEvery, Cooldown: c.Cooldown}
}

func (c *Config) Dialer() *printer.DeviceDialer {
	return &printer.DeviceDialer{Timeout: c.Timeout, BLEChunkSize: c.BLEChunkSize}
}

func (c *Config) DefaultSheet() model.SheetRequest {
	return model.SheetRequest{WidthMM: c.SheetWidthMM, HeightMM: c.SheetHeightMM}
}

// pflag.Value adapters over plain fields.

type stringVal struct{ p *string }

func stringValue(p *string) pflag.Value { return stringVal{p} }
func (v stringVal) Set(s string) error  { *v.p = s; return nil }
func (v stringVal) String() string      { return *v.p }
func (v stringVal) Type() string        { return "string" }

type intVal struct{ p *int }

func intValue(p *int) pflag.Value { return intVal{p} }
func (v intVal) String() string   { return strconv.Itoa(*v.p) }
func (v intVal) Type() string     { return "int" }
func (v intVal) Set(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*v.p = n
	return nil
}

type floatVal struct{ p *float64 }

func floatValue(p *float64) pflag.Value { return floatVal{p} }
func (v floatVal) String() string       { return strconv.FormatFloat(*v.p, 'f', -1, 64) }
func (v floatVal) Type() string         { return "float" }
func (v floatVal) Set(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*v.p = f
	return nil
}

type durationVal struct{ p *time.Duration }

func durationValue(p *time.Duration) pflag.Value { return durationVal{p} }
func (v durationVal) String() string             { return v.p.String() }
func (v durationVal) Type() string               { return "duration" }
func (v durationVal) Set(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*v.p = d
	return nil
}

type boolVal struct{ p *bool }

func boolValue(p *bool) pflag.Value { return boolVal{p} }
func (v boolVal) String() string    { return strconv.FormatBool(*v.p) }
func (v boolVal) Type() string      { return "bool" }
func (v boolVal) Set(s string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a boolean: %q", s)
	}
	*v.p = b
	return nil
}
