package label

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// CharsetMode selects how text reaches the printer. It is process-wide.
type CharsetMode int

const (
	// UTF8 sends text through the multi-byte TEXT font after CODEPAGE UTF-8.
	UTF8 CharsetMode = iota
	// ReplaceAndASCII maps text to ASCII and sends it through a legacy bitmap font.
	ReplaceAndASCII
)

func (m CharsetMode) String() string {
	if m == ReplaceAndASCII {
		return "ascii"
	}
	return "utf8"
}

// ParseCharsetMode accepts "utf8"/"utf-8" and "ascii"/"replace".
func ParseCharsetMode(s string) (CharsetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf8", "utf-8", "":
		return UTF8, nil
	case "ascii", "replace", "replace-and-ascii":
		return ReplaceAndASCII, nil
	default:
		return UTF8, ConfigurationError("charset", "unknown charset mode %q", s)
	}
}

// Route says which TEXT font a payload goes through.
type Route int

const (
	RouteUTF8 Route = iota
	RouteLegacy
)

// DefaultForced are the characters that always take the UTF-8 route when it is enabled.
// The legacy fonts render them as garbage.
const DefaultForced = "【】"

// DefaultReplacements maps common full-width punctuation to ASCII. Full-width letters and
// digits (U+FF01–U+FF5E) are folded separately.
func DefaultReplacements() map[rune]string {
	return map[rune]string{
		'【': "[",
		'】': "]",
		'「': "[",
		'」': "]",
		'（': "(",
		'）': ")",
		'《': "<",
		'》': ">",
		'，': ",",
		'、': ",",
		'。': ".",
		'：': ":",
		'；': ";",
		'！': "!",
		'？': "?",
		'“': "\"",
		'”': "\"",
		'‘': "'",
		'’': "'",
		'—': "-",
		'～': "~",
		'·': ".",
		'　': " ",
	}
}

// CharsetPolicy decides, per text payload, which font route it takes and what bytes are sent.
type CharsetPolicy struct {
	Mode         CharsetMode
	Forced       string
	Replacements map[rune]string
}

// DefaultCharsetPolicy is UTF-8 with the default forced set and replacement table.
func DefaultCharsetPolicy() CharsetPolicy {
	return CharsetPolicy{
		Mode:         UTF8,
		Forced:       DefaultForced,
		Replacements: DefaultReplacements(),
	}
}

// Resolve picks the route for text. preferLegacy is the per-call wish to use the legacy
// font; in UTF8 mode it is honoured only when the text holds no forced character and can
// be mapped to ASCII.
func (p CharsetPolicy) Resolve(text string, preferLegacy bool) (Route, string, error) {
	if p.Mode == UTF8 {
		if p.hasForced(text) || !preferLegacy {
			return RouteUTF8, text, nil
		}
		if ascii, err := p.ToASCII(text); err == nil {
			return RouteLegacy, ascii, nil
		}
		return RouteUTF8, text, nil
	}

	ascii, err := p.ToASCII(text)
	if err != nil {
		return RouteLegacy, "", err
	}
	return RouteLegacy, ascii, nil
}

// ToASCII applies the replacement table and full-width folding. Runes with no mapping
// produce an encoding error naming the first offender.
func (p CharsetPolicy) ToASCII(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if rep, ok := p.Replacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		if folded := width.Fold.String(string(r)); isASCII(folded) {
			b.WriteString(folded)
			continue
		}
		return "", EncodingError("charset", "no ASCII replacement for %s at byte %d of %q",
			fmt.Sprintf("%q (U+%04X)", r, r), i, text)
	}
	return b.String(), nil
}

func (p CharsetPolicy) hasForced(text string) bool {
	return p.Forced != "" && strings.ContainsAny(text, p.Forced)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return s != ""
}
