package mapfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/JonMunkholm/csvconvert/internal/csv"
	"gopkg.in/yaml.v3"
)

// Parse parses YAML data into a File. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: mapping file is empty", core.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: failed to parse mapping YAML: %w", core.ErrConfiguration, err)
	}

	return &f, nil
}

// LoadFile reads and parses the mapping file at path. A file without a name
// is named after the file stem.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return f, nil
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// Loader turns mapping files into core definitions.
type Loader struct {
	Funcs    *Registry
	Defaults csv.Dialect // dialect used where a file leaves a character unset
}

// NewLoader returns a loader with the built-in functions.
func NewLoader(defaults csv.Dialect) *Loader {
	return &Loader{Funcs: NewRegistry(), Defaults: defaults}
}

// Build validates f and converts it to a definition.
func (l *Loader) Build(f *File) (*core.Definition, error) {
	if err := Validate(f, l.Funcs); err != nil {
		return nil, err
	}

	m := core.NewMapping()
	for _, fd := range f.Fields {
		if err := m.Set(fd.Target, l.mapper(fd)); err != nil {
			return nil, fmt.Errorf("mapping %q: field %q: %w", f.Name, fd.Target, err)
		}
	}

	def := core.NewDefinition(f.Name, m)
	def.Description = f.Description
	def.Sanitize = f.Sanitize
	if f.SourceHeader != nil {
		def.SourceHasHeader = *f.SourceHeader
	}
	if f.TargetHeader != nil {
		def.TargetHasHeader = *f.TargetHeader
	}
	if len(f.ExpectedHeader) > 0 {
		def.ExpectedHeader = slices.Clone(f.ExpectedHeader)
	}
	def.Source = f.SourceFormat.dialect(l.Defaults)
	def.Target = f.TargetFormat.dialect(l.Defaults)

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// mapper builds the core mapper for a validated field.
func (l *Loader) mapper(fd Field) core.Mapper {
	if fd.Source != nil {
		return fd.Source.Mapper()
	}

	spec, _ := l.Funcs.Lookup(fd.Compute)
	args := make([]core.Mapper, len(fd.Args))
	for i, a := range fd.Args {
		args[i] = a.Mapper()
	}
	params := fd.Params

	return core.Computed(func(row []string, idx core.HeaderIndex) (string, error) {
		values := make([]string, len(args))
		for i, a := range args {
			v, err := a.Resolve(row, idx)
			if err != nil {
				return "", fmt.Errorf("%s arg %d: %w", spec.Name, i, err)
			}
			values[i] = v
		}
		return spec.Fn(values, params)
	})
}

// Load reads the mapping file at path and builds its definition.
func (l *Loader) Load(path string) (*core.Definition, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	def, err := l.Build(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadDir builds a definition from every *.yaml and *.yml file in dir,
// sorted by file name. All failures are reported together.
func (l *Loader) LoadDir(dir string) ([]*core.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping dir %s: %w", dir, err)
	}

	var (
		defs []*core.Definition
		errs []error
		seen = make(map[string]string)
	)

	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(dir, e.Name())

		def, err := l.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if prev, dup := seen[def.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: mapping %q defined in both %s and %s", core.ErrConfiguration, def.Name, prev, path))
			continue
		}
		seen[def.Name] = path

		defs = append(defs, def)
	}

	return defs, errors.Join(errs...)
}

// dialect applies the format overrides to base. Characters are already
// validated to be single runes.
func (f Format) dialect(base csv.Dialect) csv.Dialect {
	d := base
	if r, ok := firstRune(f.Delimiter); ok {
		d.Delimiter = r
	}
	if r, ok := firstRune(f.Quote); ok {
		d.Quote = r
	}
	if r, ok := firstRune(f.Escape); ok {
		d.Escape = r
	}
	if f.ForceQuote != nil {
		d.ForceQuote = *f.ForceQuote
	}
	return d
}

func firstRune(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}
