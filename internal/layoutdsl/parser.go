// Package layoutdsl parses the text format used to describe custom label layouts:
//
//	label 100mm x 90mm qty 2 {
//	  text 40,40 size=48 "Bin {text}"
//	  qrcode 560,40 module=6 ecc=M "{qr}"
//	  barcode 40,300 height=80 type=128 human "{barcode}"
//	  box 10mm,10mm,90mm,80mm thickness=2
//	  bar 0,360,800,2
//	  cross 400,360 size=40
//	}
//
// Coordinates are dots unless suffixed with mm. The label size is always millimetres.
package layoutdsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	layoutLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `(?://|#)[^\n]*`},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:mm|dots)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.-]*`},
		{Name: "Symbol", Pattern: `[,=;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	layoutParser = participle.MustBuild[Layout](
		participle.Lexer(layoutLexer),
		participle.Elide("Whitespace", "LineComment"),
	)
)

// Layout is the root node: the label size, an optional print quantity and the statements.
type Layout struct {
	Pos        lexer.Position `parser:""`
	Width      string         `parser:"Newline* 'label' @Number"`
	Height     string         `parser:"'x' @Number"`
	Qty        int            `parser:"( 'qty' @Number )?"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Statement draws one element.
type Statement struct {
	Pos     lexer.Position `parser:""`
	Kind    string         `parser:"@( 'text' | 'qrcode' | 'barcode' | 'box' | 'bar' | 'cross' )"`
	Coords  []string       `parser:"@Number ( ',' @Number )*"`
	Options []*Option      `parser:"@@*"`
	Content *StringLiteral `parser:"@String?"`
}

// Option is key=value, or a bare key for a flag.
type Option struct {
	Pos   lexer.Position `parser:""`
	Key   string         `parser:"@Ident"`
	Value *OptionValue   `parser:"( '=' @@ )?"`
}

type OptionValue struct {
	String *StringLiteral `parser:"  @String"`
	Word   *string        `parser:"| @( Number | Ident )"`
}

func (v *OptionValue) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Word != nil:
		return *v.Word
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a layout from r. name is used in error positions.
func Parse(name string, r io.Reader) (*Layout, error) {
	return layoutParser.Parse(name, r)
}

// ParseString parses a layout held in memory.
func ParseString(input string) (*Layout, error) {
	return layoutParser.ParseString("", input)
}
