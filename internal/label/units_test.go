package label

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMMToDots(t *testing.T) {
	tests := []struct {
		name  string
		mm    float64
		ratio float64
		want  int
	}{
		{"whole", 100, 8, 800},
		{"fraction floors", 40.9, 8, 327},
		{"representation error", 2.3, 10, 23},
		{"300 dpi", 25, 12, 300},
		{"below one dot", 0.1, 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MMToDots(tt.mm, tt.ratio)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMMToDotsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		mm    float64
		ratio float64
	}{
		{"zero mm", 0, 8},
		{"negative mm", -5, 8},
		{"zero ratio", 10, 0},
		{"negative ratio", 10, -8},
		{"nan", math.NaN(), 8},
		{"inf", math.Inf(1), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MMToDots(tt.mm, tt.ratio)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindConfiguration))
			assert.Contains(t, err.Error(), InvalidDimension)
		})
	}
}

func TestMMToDotsMonotonic(t *testing.T) {
	for _, ratio := range []float64{8, 11.81, 12} {
		prev := -1
		for i := 1; i <= 2000; i++ {
			d, err := MMToDots(float64(i)*0.1, ratio)
			require.NoError(t, err)
			require.GreaterOrEqual(t, d, prev, "mm=%g ratio=%g", float64(i)*0.1, ratio)
			prev = d
		}
	}
}

func TestLabelSheet(t *testing.T) {
	s, err := NewLabelSheet(100, 90, 8, 20)
	require.NoError(t, err)
	assert.Equal(t, 800, s.WidthDots())
	assert.Equal(t, 720, s.HeightDots())
	assert.Equal(t, 760, s.EffectiveWidth())
	assert.Equal(t, 680, s.EffectiveHeight())
	assert.InDelta(t, 100.0, DotsToMM(s.WidthDots(), 8), 1e-9)
}

func TestLabelSheetInvalid(t *testing.T) {
	tests := []struct {
		name        string
		w, h, ratio float64
		margin      int
	}{
		{"margin eats width", 5, 90, 8, 20},
		{"margin eats height", 100, 4, 8, 20},
		{"negative margin", 100, 90, 8, -1},
		{"zero width", 0, 90, 8, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLabelSheet(tt.w, tt.h, tt.ratio, tt.margin)
			require.Error(t, err)
			assert.Equal(t, KindConfiguration, KindOf(err))
		})
	}
}
