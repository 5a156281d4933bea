package preview

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aRandomBitmap() *PixelBitmap {
	width, height := 1+rand.IntN(400), 1+rand.IntN(400)
	pixels := make([][]byte, height)
	for y := range height {
		row := make([]byte, width)
		for x := range width {
			row[x] = byte(rand.IntN(2))
		}
		pixels[y] = row
	}

	return &PixelBitmap{pixels, width, height}
}

func assertBitmapsIdentical(t *testing.T, b1 Bitmap, b2 Bitmap) {
	t.Helper()
	require.Equal(t, b1.Width(), b2.Width(), "width of %s and %s", b1, b2)
	require.Equal(t, b1.Height(), b2.Height(), "height of %s and %s", b1, b2)

	for y := range b1.Height() {
		for x := range b1.Width() {
			if b1.GetBit(x, y) != b2.GetBit(x, y) {
				t.Fatalf("Bit at (%v, %v) doesn't match: %v vs %v", x, y, b1.GetBit(x, y), b2.GetBit(x, y))
			}
		}
	}
}

func TestPackBitmap(t *testing.T) {
	test := &PixelBitmap{
		pixels: [][]byte{
			{1, 0},
			{0, 1},
		},
		width: 2, height: 2,
	}

	packed := PackBitmap(test)
	assertBitmapsIdentical(t, test, packed)
	assert.Equal(t, 1, packed.Stride())
	// unused low bits are padded white
	assert.Equal(t, []byte{0b10111111, 0b01111111}, packed.Data())
}

func TestPackBitmapWholeBytes(t *testing.T) {
	row := []byte{0, 1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1}
	packed := PackBitmap(&PixelBitmap{pixels: [][]byte{row}, width: 16, height: 1})
	assert.Equal(t, 2, packed.Stride())
	assert.Equal(t, []byte{0x7E, 0xFF}, packed.Data())
}

func TestPackBitmapMany(t *testing.T) {
	const testCaseCount = 30

	for i := range testCaseCount {
		testBitmap := aRandomBitmap()
		t.Run(fmt.Sprintf("test %v: %s", i, testBitmap.String()), func(t *testing.T) {
			copiedBitmap := PackBitmap(testBitmap)
			assertBitmapsIdentical(t, testBitmap, copiedBitmap)
			copiedAgainBitmap := PackBitmap(copiedBitmap)
			assertBitmapsIdentical(t, copiedBitmap, copiedAgainBitmap)
			assert.Equal(t, copiedBitmap.Data(), copiedAgainBitmap.Data())
		})
	}
}

func TestFromPaletted(t *testing.T) {
	for _, palette := range []color.Palette{
		{color.Black, color.White},
		{color.White, color.Black},
	} {
		img := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
		img.Set(0, 0, color.Black)
		img.Set(1, 0, color.White)

		b, err := FromPaletted(img)
		require.NoError(t, err)
		assert.Equal(t, Black, b.GetBit(0, 0))
		assert.Equal(t, White, b.GetBit(1, 0))
	}

	_, err := FromPaletted(image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black}))
	assert.Error(t, err)
}
