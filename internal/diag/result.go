package diag

// Result is the outcome of a sub-compiler: a value, the diagnostics raised
// while producing it, or both. A result has failed when any of its
// diagnostics is an error; warnings travel alongside a successful value.
type Result[T any] struct {
	value T
	diags List
}

// Ok wraps a value with no diagnostics.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// OkWith wraps a value with accompanying diagnostics (usually warnings).
func OkWith[T any](v T, ds ...*Diagnostic) Result[T] {
	r := Result[T]{value: v}
	r.diags.Add(ds...)
	return r
}

// Fail builds a failed result. At least one diagnostic should be an error.
func Fail[T any](ds ...*Diagnostic) Result[T] {
	var r Result[T]
	r.diags.Add(ds...)
	return r
}

// FailList builds a failed result from a list.
func FailList[T any](l List) Result[T] {
	return Fail[T](l...)
}

// Failed reports whether the result carries an error.
func (r Result[T]) Failed() bool {
	return r.diags.HasErrors()
}

// Get returns the value and whether the result succeeded.
func (r Result[T]) Get() (T, bool) {
	return r.value, !r.Failed()
}

// Value returns the value, which is the zero value for failed results.
func (r Result[T]) Value() T {
	return r.value
}

// Diagnostics returns a copy of the result's diagnostics.
func (r Result[T]) Diagnostics() List {
	out := make(List, 0, len(r.diags))
	return append(out, r.diags...)
}

// With returns a copy of r with additional diagnostics. The value is kept,
// so a result can become failed while still carrying a best-effort value.
func (r Result[T]) With(ds ...*Diagnostic) Result[T] {
	out := Result[T]{value: r.value, diags: r.Diagnostics()}
	out.diags.Add(ds...)
	return out
}

// Then runs f on the value of r, short-circuiting on failure. Diagnostics of
// both steps are kept.
func Then[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.Failed() {
		return FailList[U](r.diags)
	}
	next := f(r.value)
	out := Result[U]{value: next.value}
	out.diags.Merge(r.diags)
	out.diags.Merge(next.diags)
	return out
}

// Map transforms the value of a successful result.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.Failed() {
		return FailList[U](r.diags)
	}
	return Result[U]{value: f(r.value), diags: r.Diagnostics()}
}

// All collects every result. It succeeds with all values when none failed,
// and otherwise fails with the diagnostics of every input. Values of the
// successful inputs are still returned so callers can keep going.
func All[T any](rs []Result[T]) Result[[]T] {
	out := Result[[]T]{value: make([]T, 0, len(rs))}
	for _, r := range rs {
		out.diags.Merge(r.diags)
		if !r.Failed() {
			out.value = append(out.value, r.value)
		}
	}
	return out
}

// Diagnosed is implemented by every Result instantiation; it lets results of
// different value types be combined.
type Diagnosed interface {
	Failed() bool
	Diagnostics() List
}

// Collect merges the diagnostics of results of any value type.
func Collect(rs ...Diagnosed) List {
	var out List
	for _, r := range rs {
		out.Merge(r.Diagnostics())
	}
	return out
}
