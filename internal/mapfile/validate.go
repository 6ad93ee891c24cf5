package mapfile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvconvert/internal/core"
)

// Problem is one validation failure at a path inside the file.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// ValidationError lists every problem found in a mapping file. It matches
// core.ErrConfiguration.
type ValidationError struct {
	Mapping  string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("mapping %q: %d problem(s): %s", e.Mapping, len(e.Problems), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return core.ErrConfiguration }

func (e *ValidationError) add(path, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks f against reg and returns a *ValidationError listing every
// problem, or nil.
func Validate(f *File, reg *Registry) error {
	if f == nil {
		return &ValidationError{Problems: []Problem{{Message: "mapping file is nil"}}}
	}

	res := &ValidationError{Mapping: f.Name}

	if f.Name == "" {
		res.add("name", "is required")
	}
	if len(f.ExpectedHeader) > 0 && f.SourceHeader != nil && !*f.SourceHeader {
		res.add("expected_header", "requires source_header")
	}

	validateFormat(res, "source_format", f.SourceFormat)
	validateFormat(res, "target_format", f.TargetFormat)

	if len(f.Fields) == 0 {
		res.add("fields", "at least one field is required")
	}

	headerless := f.SourceHeader != nil && !*f.SourceHeader
	seen := make(map[string]int, len(f.Fields))
	for i := range f.Fields {
		validateField(res, reg, i, &f.Fields[i], seen, headerless)
	}

	if len(res.Problems) == 0 {
		return nil
	}
	return res
}

func validateFormat(res *ValidationError, path string, fm Format) {
	for _, c := range []struct{ name, value string }{
		{"delimiter", fm.Delimiter},
		{"quote", fm.Quote},
		{"escape", fm.Escape},
	} {
		if c.value != "" && utf8.RuneCountInString(c.value) != 1 {
			res.add(path+"."+c.name, "must be a single character, got %q", c.value)
		}
	}
}

func validateField(res *ValidationError, reg *Registry, i int, fd *Field, seen map[string]int, headerless bool) {
	path := fmt.Sprintf("fields[%d]", i)

	if fd.Target == "" {
		res.add(path+".target", "is required")
	} else if first, dup := seen[fd.Target]; dup {
		res.add(path+".target", "duplicate target %q (first at fields[%d])", fd.Target, first)
	} else {
		seen[fd.Target] = i
	}

	switch {
	case fd.Source == nil && fd.Compute == "":
		res.add(path, "needs source or compute")
	case fd.Source != nil && fd.Compute != "":
		res.add(path, "source and compute are exclusive")
	case fd.Source != nil:
		validateRef(res, path+".source", *fd.Source, headerless)
		if len(fd.Args) > 0 || len(fd.Params) > 0 {
			res.add(path, "args and params need compute")
		}
	default:
		validateCompute(res, reg, path, fd, headerless)
	}
}

func validateCompute(res *ValidationError, reg *Registry, path string, fd *Field, headerless bool) {
	spec, ok := reg.Lookup(fd.Compute)
	if !ok {
		res.add(path+".compute", "unknown function %q", fd.Compute)
		return
	}
	if err := spec.checkArgs(len(fd.Args)); err != nil {
		res.add(path+".args", "%v", err)
	}
	if err := spec.checkParams(fd.Params); err != nil {
		res.add(path+".params", "%v", err)
	}
	for j, arg := range fd.Args {
		validateRef(res, fmt.Sprintf("%s.args[%d]", path, j), arg, headerless)
	}
}

// validateRef checks one source reference. Names cannot resolve without a
// source header.
func validateRef(res *ValidationError, path string, r Ref, headerless bool) {
	switch {
	case r.IsIndex && r.Index < 0:
		res.add(path, "index must not be negative, got %d", r.Index)
	case !r.IsIndex && r.Name == "":
		res.add(path, "name is empty")
	case !r.IsIndex && headerless:
		res.add(path, "name %q needs source_header; use a position", r.Name)
	}
}
