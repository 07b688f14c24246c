package compiler

import (
	"io"
	"log/slog"

	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// DefaultMaxDepth bounds nested resolution (types compiled on demand while
// compiling another type, nested expressions).
const DefaultMaxDepth = 256

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the session logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTypeChecker sets how assignability failures are reported.
func WithTypeChecker(mode typecheck.Mode) Option {
	return func(c *Compiler) {
		c.checker = typecheck.New(mode)
	}
}

// WithNameGenerator sets the generator for synthesized names (anonymous
// types and queries).
func WithNameGenerator(g NameGenerator) Option {
	return func(c *Compiler) {
		if g != nil {
			c.names = g
		}
	}
}

// WithMaxDepth sets the resolution depth quota. Values below 1 keep the
// default.
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithImports supplies previously compiled documents that source files may
// import types from.
func WithImports(docs ...*ir.Document) Option {
	return func(c *Compiler) {
		for _, d := range docs {
			if d != nil {
				c.importSources = append(c.importSources, d)
			}
		}
	}
}

// WithPartialDocument makes Compile return the best-effort document even
// when errors were reported.
func WithPartialDocument() Option {
	return func(c *Compiler) {
		c.partial = true
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
