package diag

import (
	"fmt"

	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// Defect is raised (as a panic value) when the compiler meets a syntax
// shape the grammar should never produce. It aborts the current compilation
// unit only; see RecoverDefect.
type Defect struct {
	Message string
	Pos     syntax.Pos
}

func (d Defect) Error() string {
	return fmt.Sprintf("internal defect at %s: %s", d.Pos, d.Message)
}

// Defectf panics with a Defect.
func Defectf(pos syntax.Pos, format string, args ...any) {
	panic(Defect{Message: fmt.Sprintf(format, args...), Pos: pos})
}

// RecoverDefect turns a Defect panic into an InternalDefect diagnostic on
// list. Any other panic value is re-raised. It must be called directly by a
// deferred statement:
//
//	defer diag.RecoverDefect(&list)
func RecoverDefect(list *List) {
	r := recover()
	if r == nil {
		return
	}
	d, ok := r.(Defect)
	if !ok {
		panic(r)
	}
	list.Add(Errorf(InternalDefect, d.Pos, "%s", d.Message))
}
