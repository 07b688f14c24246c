package diag

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "WARNING"
	}
	return "ERROR"
}

// MarshalText renders the severity as ERROR or WARNING.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Code classifies a diagnostic.
type Code string

// Diagnostic codes.
const (
	NotDefined              Code = "NotDefined"              // unregistered type, function or field
	AmbiguousReference      Code = "AmbiguousReference"      // unqualified name matches several types
	CyclicDependency        Code = "CyclicDependency"        // requested while already being compiled
	TypeMismatch            Code = "TypeMismatch"            // assignability failure
	StructuralError         Code = "StructuralError"         // malformed construct for its context
	InternalDefect          Code = "InternalDefect"          // unreachable syntax shape
	ResolutionDepthExceeded Code = "ResolutionDepthExceeded" // nesting beyond the configured limit
)

// Diagnostic is a compilation error or warning with its source position.
type Diagnostic struct {
	Code     Code       `json:"code"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Pos      syntax.Pos `json:"pos"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Pos.IsValid() || d.Pos.Source != "" {
		return fmt.Sprintf("%s: %s [%s] %s", d.Pos, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
}

// IsError reports whether the diagnostic fails the compilation.
func (d *Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Errorf builds an error-severity diagnostic.
func Errorf(code Code, pos syntax.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityError, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Warningf builds a warning-severity diagnostic.
func Warningf(code Code, pos syntax.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// IsCode reports whether any diagnostic in err's chain (or in a combined
// multi-error) has the given code.
func IsCode(err error, code Code) bool {
	for _, e := range multierr.Errors(err) {
		var d *Diagnostic
		if errors.As(e, &d) && d.Code == code {
			return true
		}
	}
	return false
}

// List is an ordered, deduplicated collection of diagnostics.
//
// Two diagnostics are duplicates when position, code and message agree.
// The same failing field is often reached from several dependents; the
// user should still see it once.
type List []*Diagnostic

// sameDiagnostic matches a diagnostic raised twice at one position. Without
// a position only the identical diagnostic matches, so sites that share no
// line information are all kept.
func sameDiagnostic(a, b *Diagnostic) bool {
	if a == b {
		return true
	}
	if !a.Pos.IsValid() || !b.Pos.IsValid() {
		return false
	}
	return a.Pos == b.Pos && a.Code == b.Code && a.Message == b.Message
}

// Add appends diagnostics, dropping nils and duplicates.
func (l *List) Add(ds ...*Diagnostic) {
next:
	for _, d := range ds {
		if d == nil {
			continue
		}
		for _, existing := range *l {
			if sameDiagnostic(existing, d) {
				continue next
			}
		}
		*l = append(*l, d)
	}
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other List) {
	l.Add(other...)
}

// Len returns the number of diagnostics.
func (l List) Len() int {
	return len(l)
}

// HasErrors reports whether at least one diagnostic has error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns the error-severity diagnostics.
func (l List) Errors() []*Diagnostic {
	return l.filter(SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (l List) Warnings() []*Diagnostic {
	return l.filter(SeverityWarning)
}

func (l List) filter(s Severity) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range l {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// WithCode returns the diagnostics carrying code.
func (l List) WithCode(code Code) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Sorted returns the diagnostics ordered by position, keeping insertion
// order for equal positions.
func (l List) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.Before(out[j].Pos)
	})
	return out
}

// Err combines the error-severity diagnostics into a single error, or nil.
// Use multierr.Errors to split it again.
func (l List) Err() error {
	var err error
	for _, d := range l.Sorted() {
		if d.IsError() {
			err = multierr.Append(err, d)
		}
	}
	return err
}
