package importer

import (
	"fmt"

	"tomgalvin.uk/tsclabel/internal/label"
)

// MaxSerialCount bounds a single serial range.
const MaxSerialCount = 100_000

// Serial generates Prefix followed by the numbers From..To (inclusive), zero padded to
// Width digits, e.g. JJG2025110600001.
type Serial struct {
	Prefix string
	From   int
	To     int
	Width  int
}

func (s Serial) Validate() error {
	if s.From < 0 || s.To < s.From {
		return label.ValidationError("serial", "range %d..%d is empty or negative", s.From, s.To)
	}
	if n := s.To - s.From + 1; n > MaxSerialCount {
		return label.ValidationError("serial", "range of %d labels exceeds %d", n, MaxSerialCount)
	}
	if s.Width < 0 || s.Width > 18 {
		return label.ValidationError("serial", "width %d must be between 0 and 18", s.Width)
	}
	return nil
}

// Items returns one item per number with the code as its text.
func (s Serial) Items() ([]label.Item, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	items := make([]label.Item, 0, s.To-s.From+1)
	for i := s.From; i <= s.To; i++ {
		items = append(items, label.Item{Text: fmt.Sprintf("%s%0*d", s.Prefix, s.Width, i)})
	}
	return items, nil
}
