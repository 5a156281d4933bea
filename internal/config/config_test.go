package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomgalvin.uk/tsclabel/internal/label"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, ":8000", c.Listen)
	assert.Equal(t, 100.0, c.SheetWidthMM)
	assert.Equal(t, 90.0, c.SheetHeightMM)
	assert.Empty(t, c.Device)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "TSCLABEL_QR_MODULE", EnvName("qr-module"))
	assert.Equal(t, "TSCLABEL_DEVICE", EnvName("device"))
}

func TestLoadEnv(t *testing.T) {
	c := Default()
	require.NoError(t, c.LoadEnv(envOf(map[string]string{
		"TSCLABEL_DEVICE":    "tcp:192.168.1.50",
		"TSCLABEL_DELAY":     "500ms",
		"TSCLABEL_QR_MODULE": "6",
		"TSCLABEL_RASTER":    "true",
		"TSCLABEL_CHARSET":   "ascii",
		"TSCLABEL_WIDTH":     "50",
	})))

	assert.Equal(t, "tcp:192.168.1.50", c.Device)
	assert.Equal(t, 500*time.Millisecond, c.Delay)
	assert.Equal(t, 6, c.Label.QRModuleSize)
	assert.True(t, c.Label.Raster)
	assert.Equal(t, 50.0, c.SheetWidthMM)

	cfg, err := c.LabelConfig()
	require.NoError(t, err)
	assert.Equal(t, label.ReplaceAndASCII, cfg.Charset.Mode)
}

func TestLoadEnvInvalid(t *testing.T) {
	c := Default()
	err := c.LoadEnv(envOf(map[string]string{"TSCLABEL_TIMEOUT": "soon"}))
	require.Error(t, err)
	assert.True(t, label.IsKind(err, label.KindConfiguration))
	assert.Contains(t, err.Error(), "TSCLABEL_TIMEOUT")
}

func TestFlagsOverrideEnv(t *testing.T) {
	c := Default()
	require.NoError(t, c.LoadEnv(envOf(map[string]string{
		"TSCLABEL_DEVICE":   "usb:/dev/usb/lp0",
		"TSCLABEL_COOLDOWN": "1m",
	})))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)
	assert.Equal(t, "usb:/dev/usb/lp0", fs.Lookup("device").DefValue)

	require.NoError(t, fs.Parse([]string{"--device", "ble:TSC-ALPHA", "--cooldown-every", "50", "--raster"}))
	assert.Equal(t, "ble:TSC-ALPHA", c.Device)
	assert.Equal(t, 50, c.CooldownEvery)
	assert.Equal(t, time.Minute, c.Cooldown)
	assert.True(t, c.Label.Raster)

	th := c.Throttle()
	assert.Equal(t, 50, th.CooldownEvery)
	assert.Equal(t, time.Minute, th.Cooldown)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad charset", func(c *Config) { c.CharsetMode = "latin1" }},
		{"zero width", func(c *Config) { c.SheetWidthMM = 0 }},
		{"density", func(c *Config) { c.Label.Density = 20 }},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, label.IsKind(err, label.KindConfiguration), "got %v", err)
		})
	}
}

func TestDialerAndSheet(t *testing.T) {
	c := Default()
	c.Timeout = 2 * time.Second
	c.BLEChunkSize = 180
	d := c.Dialer()
	assert.Equal(t, 2*time.Second, d.Timeout)
	assert.Equal(t, 180, d.BLEChunkSize)
	assert.Equal(t, 100.0, c.DefaultSheet().WidthMM)
}
