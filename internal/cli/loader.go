package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/taxilang/taxilang-sub000/internal/compiler"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
	"github.com/taxilang/taxilang-sub000/internal/syntax/cuetree"
)

// LoadResult contains the parse trees read from a set of source paths.
type LoadResult struct {
	Documents []*syntax.Document
	FileCount int // Number of CUE files read
}

// LoadError represents an error that occurred while reading sources.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSources reads parse trees from files and directories.
//
// A file is compiled on its own and holds one document, or several under a
// top-level "documents" struct. A directory is loaded as one CUE instance,
// so its files unify; each file then contributes its own
// documents: "<name>": {...} entry.
//
// Every path is read; the returned errors cover all of them.
func LoadSources(paths []string) (*LoadResult, []error) {
	if len(paths) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no source paths given"}}
	}

	ctx := cuecontext.New()
	result := &LoadResult{}
	var errs []error
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			errs = append(errs, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("source not found: %s", path)})
			continue
		}
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)})
			continue
		}

		var value cue.Value
		if info.IsDir() {
			n, v, loadErr := loadDir(ctx, path)
			if loadErr != nil {
				errs = append(errs, loadErr)
				continue
			}
			result.FileCount += n
			value = v
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)})
				continue
			}
			value = ctx.CompileBytes(data, cue.Filename(path))
			if err := value.Err(); err != nil {
				errs = append(errs, cueLoadError(ErrCodeBuildFailed, err))
				continue
			}
			result.FileCount++
		}

		docs, err := cuetree.DecodeDocuments(value)
		if err != nil {
			errs = append(errs, convertDecodeError(err))
			continue
		}
		result.Documents = append(result.Documents, docs...)
	}

	if len(result.Documents) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoFiles, Message: "no documents found in sources"})
	}
	return result, errs
}

// loadDir builds the CUE instance of a directory.
func loadDir(ctx *cue.Context, dir string) (int, cue.Value, *LoadError) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return 0, cue.Value{}, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return 0, cue.Value{}, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return 0, cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return 0, cue.Value{}, cueLoadError(ErrCodeLoadFailed, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return 0, cue.Value{}, cueLoadError(ErrCodeBuildFailed, err)
	}
	return len(cueFiles), value, nil
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// cueLoadError keeps the first message and position of a CUE error.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		format, args := errs[0].Msg()
		le.Message = fmt.Sprintf(format, args...)
		if positions := cueerrors.Positions(errs[0]); len(positions) > 0 {
			le.Pos = positions[0]
		}
	}
	return le
}

// convertDecodeError converts a decoder error to a LoadError with position info.
func convertDecodeError(err error) *LoadError {
	var decodeErr *cuetree.DecodeError
	if errors.As(err, &decodeErr) {
		return &LoadError{
			Code:    ErrCodeDecodeFailed,
			Message: fmt.Sprintf("%s: %s", decodeErr.Path, decodeErr.Message),
			Pos:     decodeErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
}

// CompileImports compiles sources whose types other sources may import.
// They must compile without errors.
func CompileImports(paths []string, opts ...compiler.Option) (*ir.Document, []error) {
	loaded, errs := LoadSources(paths)
	if len(errs) > 0 {
		return nil, errs
	}
	doc, diags := compiler.Compile(loaded.Documents, opts...)
	if diags.HasErrors() {
		out := make([]error, 0, len(diags))
		for _, d := range diags.Errors() {
			out = append(out, &LoadError{Code: ErrCodeImportFailed, Message: d.Error()})
		}
		return nil, out
	}
	return doc, nil
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files or documents found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeDecodeFailed = "E008" // Parse tree does not decode
	ErrCodeConfig       = "E009" // Config file invalid
	ErrCodeImportFailed = "E010" // Imported sources do not compile
	ErrCodeViewSQL      = "E011" // View does not compile to SQL
)
