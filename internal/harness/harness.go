package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/taxilang/taxilang-sub000/internal/compiler"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/querysql"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
	"github.com/taxilang/taxilang-sub000/internal/syntax/cuetree"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// Harness runs scenarios with sequential synthesized names and a fresh
// in-memory database per scenario.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness that logs to logger. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}
	return &Harness{logger: logger}
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Compile imports into a document sources may import from
// 2. Compile sources with the scenario's options
// 3. Load data rows into an in-memory database, when present
// 4. Evaluate assertions and return the result
//
// An error is returned when the scenario cannot be executed at all
// (unreadable sources, failing imports, bad data). Compiler diagnostics on
// the sources are part of the result, not an error.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run executes scenario. See the package-level Run.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	mode, err := typecheck.ParseMode(scenario.Options.TypeChecker)
	if err != nil {
		return nil, err
	}
	opts := []compiler.Option{
		compiler.WithLogger(h.logger),
		compiler.WithNameGenerator(compiler.NewSequenceNames()),
		compiler.WithTypeChecker(mode),
		compiler.WithMaxDepth(scenario.Options.MaxDepth),
	}

	if len(scenario.Imports) > 0 {
		imported, err := compileFiles(scenario.Imports, compiler.WithLogger(h.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to compile imports: %w", err)
		}
		opts = append(opts, compiler.WithImports(imported))
	}
	if scenario.Options.Partial {
		opts = append(opts, compiler.WithPartialDocument())
	}

	docs, err := decodeFiles(scenario.Sources)
	if err != nil {
		return nil, err
	}
	doc, diags := compiler.Compile(docs, opts...)

	result := NewResult()
	result.Document = doc
	result.Diagnostics = diags

	actx := &AssertionContext{Ctx: ctx}
	if len(scenario.Data) > 0 {
		if doc == nil {
			return nil, fmt.Errorf("scenario has data but compilation failed: %v", diags.Err())
		}
		db, err := loadData(ctx, doc, scenario.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to load data: %w", err)
		}
		defer db.Close()
		actx.DB = db
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	h.logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

// decodeFiles reads CUE sources. Each file holds one document, or several
// under a top-level "documents" struct.
func decodeFiles(paths []string) ([]*syntax.Document, error) {
	cctx := cuecontext.New()
	var out []*syntax.Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
		v := cctx.CompileBytes(data, cue.Filename(path))
		docs, err := cuetree.DecodeDocuments(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, docs...)
	}
	return out, nil
}

// compileFiles compiles sources that must compile cleanly.
func compileFiles(paths []string, opts ...compiler.Option) (*ir.Document, error) {
	docs, err := decodeFiles(paths)
	if err != nil {
		return nil, err
	}
	doc, diags := compiler.Compile(docs, opts...)
	if err := diags.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// loadData creates the view tables and inserts the scenario's rows, in type
// name order.
func loadData(ctx context.Context, doc *ir.Document, data map[string][]map[string]any) (*querysql.DB, error) {
	db, err := querysql.Open(":memory:")
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(ctx, doc); err != nil {
		db.Close()
		return nil, err
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obj := doc.ObjectType(ir.QualifiedName(name))
		if obj == nil {
			db.Close()
			return nil, fmt.Errorf("data names unknown model type %s", name)
		}
		for _, row := range data[name] {
			if err := db.Insert(ctx, obj, row); err != nil {
				db.Close()
				return nil, err
			}
		}
	}
	return db, nil
}
