package label

// EstimateWidth approximates the printed width of text in dots. CJK ideographs and CJK
// punctuation take a full em (fontHeight), everything else 0.6em. The estimate ignores
// the actual font face.
func EstimateWidth(text string, fontHeight int) int {
	if fontHeight <= 0 {
		return 0
	}
	narrow := fontHeight * 3 / 5
	width := 0
	for _, r := range text {
		if IsWide(r) {
			width += fontHeight
		} else {
			width += narrow
		}
	}
	return width
}

// IsWide reports whether r occupies a full em in EstimateWidth.
func IsWide(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3000 && r <= 0x303F)
}
