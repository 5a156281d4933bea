package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateWidth(t *testing.T) {
	tests := []struct {
		text string
		fh   int
		want int
	}{
		{"", 48, 0},
		{"ABC", 48, 84},
		{"中文", 48, 96},
		{"【A】", 48, 124},
		{"JJG20251106-00001", 24, 17 * 14},
		{"a", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateWidth(tt.text, tt.fh))
		})
	}
}

func TestEstimateWidthAdditive(t *testing.T) {
	parts := []string{"", "A", "中", "hello", "标签打印", "【测试】", "x y", "ＡＢ"}
	for _, fh := range []int{12, 24, 48, 55} {
		for _, a := range parts {
			for _, b := range parts {
				assert.Equal(t, EstimateWidth(a, fh)+EstimateWidth(b, fh), EstimateWidth(a+b, fh), "%q + %q at %d", a, b, fh)
			}
		}
	}
}

func TestIsWide(t *testing.T) {
	assert.True(t, IsWide('中'))
	assert.True(t, IsWide('。'))
	assert.True(t, IsWide('　'))
	assert.False(t, IsWide('A'))
	assert.False(t, IsWide('Ａ'))
	assert.False(t, IsWide('ア'))
}
