package label

import (
	"math"
)

// Conversions between millimetres and printer dots. A 203 dpi head is 8 dots/mm,
// a 300 dpi head is 12 dots/mm.

// floorSlack absorbs binary representation error so that e.g. 2.3mm at 10 dots/mm
// gives 23 dots rather than 22.
const floorSlack = 1e-9

// MMToDots converts a length in millimetres to whole dots, rounding down.
func MMToDots(mm, dpiRatio float64) (int, error) {
	if !(mm > 0) || math.IsInf(mm, 0) {
		return 0, ConfigurationError("mm_to_dots", "%s: length %gmm must be positive", InvalidDimension, mm)
	}
	if !(dpiRatio > 0) || math.IsInf(dpiRatio, 0) {
		return 0, ConfigurationError("mm_to_dots", "%s: dpi ratio %g must be positive", InvalidDimension, dpiRatio)
	}
	return int(math.Floor(mm*dpiRatio + floorSlack)), nil
}

// DotsToMM converts dots back to millimetres. Used for previews only.
func DotsToMM(dots int, dpiRatio float64) float64 {
	if dpiRatio <= 0 {
		return 0
	}
	return float64(dots) / dpiRatio
}

// LabelSheet is the physical label stock a sheet is printed on.
type LabelSheet struct {
	WidthMM    float64
	HeightMM   float64
	DPIRatio   float64
	MarginDots int
}

// NewLabelSheet builds a LabelSheet and checks that every derived dimension is positive.
func NewLabelSheet(widthMM, heightMM, dpiRatio float64, marginDots int) (LabelSheet, error) {
	s := LabelSheet{
		WidthMM:    widthMM,
		HeightMM:   heightMM,
		DPIRatio:   dpiRatio,
		MarginDots: marginDots,
	}
	if err := s.Validate(); err != nil {
		return LabelSheet{}, err
	}
	return s, nil
}

// Validate reports a configuration error unless width, height and the effective
// (margin-reduced) area are all positive.
func (s LabelSheet) Validate() error {
	if s.MarginDots < 0 {
		return ConfigurationError("label_sheet", "margin %d dots must not be negative", s.MarginDots)
	}
	w, err := MMToDots(s.WidthMM, s.DPIRatio)
	if err != nil {
		return err
	}
	h, err := MMToDots(s.HeightMM, s.DPIRatio)
	if err != nil {
		return err
	}
	if w-2*s.MarginDots <= 0 || h-2*s.MarginDots <= 0 {
		return ConfigurationError("label_sheet",
			"margin %d dots leaves no printable area on a %dx%d dot label", s.MarginDots, w, h)
	}
	return nil
}

func (s LabelSheet) WidthDots() int {
	d, _ := MMToDots(s.WidthMM, s.DPIRatio)
	return d
}

func (s LabelSheet) HeightDots() int {
	d, _ := MMToDots(s.HeightMM, s.DPIRatio)
	return d
}

// EffectiveWidth is the printable width once the margin is taken off both sides.
func (s LabelSheet) EffectiveWidth() int {
	return s.WidthDots() - 2*s.MarginDots
}

// EffectiveHeight is the printable height once the margin is taken off top and bottom.
func (s LabelSheet) EffectiveHeight() int {
	return s.HeightDots() - 2*s.MarginDots
}
