package syntax

import "fmt"

// Pos is a source position. Line and Column are 1-based; the zero value
// means "no position".
type Pos struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NoPos is the zero position.
var NoPos = Pos{}

// IsValid reports whether the position carries line information.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	switch {
	case !p.IsValid() && p.Source == "":
		return "-"
	case !p.IsValid():
		return p.Source
	case p.Source == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
	}
}

// Before reports whether p sorts before q (by source, then line, then column).
func (p Pos) Before(q Pos) bool {
	if p.Source != q.Source {
		return p.Source < q.Source
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}
