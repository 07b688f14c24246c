package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// depthGuard enforces the resolution depth quota.
//
// Every on-demand type compilation and every nested expression enters the
// guard; exceeding the quota produces a ResolutionDepthExceeded diagnostic
// instead of unbounded recursion.
type depthGuard struct {
	max     int
	current int
	peak    int
}

func newDepthGuard(max int) *depthGuard {
	return &depthGuard{max: max}
}

// enter records one more level. It returns a diagnostic when the quota is
// exceeded; callers must still call leave.
func (g *depthGuard) enter(what string, pos syntax.Pos) *diag.Diagnostic {
	g.current++
	if g.current > g.peak {
		g.peak = g.current
	}
	if g.current > g.max {
		return diag.Errorf(diag.ResolutionDepthExceeded, pos,
			"Resolving %s exceeded the maximum nesting depth of %d", what, g.max)
	}
	return nil
}

func (g *depthGuard) leave() {
	g.current--
}
