package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/csvconvert/internal/csv"
)

// Definition is a named, reusable conversion setup: the mapping plus the
// header and format settings a Converter needs.
type Definition struct {
	Name        string
	Description string
	Mapping     *Mapping

	SourceHasHeader bool
	TargetHasHeader bool
	ExpectedHeader  []string // nil disables header validation

	Source   csv.Dialect
	Target   csv.Dialect
	Sanitize bool // replace invalid UTF-8 in the source
}

// NewDefinition returns a definition with both header flags set and the
// default dialect on both sides.
func NewDefinition(name string, m *Mapping) *Definition {
	return &Definition{
		Name:            name,
		Mapping:         m,
		SourceHasHeader: true,
		TargetHasHeader: true,
		Source:          csv.DefaultDialect(),
		Target:          csv.DefaultDialect(),
	}
}

// Validate reports every problem with d. The returned error wraps
// ErrConfiguration.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if d.Mapping == nil || d.Mapping.Len() == 0 {
		errs = append(errs, errors.New("mapping has no fields"))
	}
	if d.ExpectedHeader != nil && !d.SourceHasHeader {
		errs = append(errs, errors.New("expected header set but source has no header"))
	}
	if err := d.Source.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source format: %w", err))
	}
	if err := d.Target.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("target format: %w", err))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: definition %q: %w", ErrConfiguration, d.Name, errors.Join(errs...))
}

// Apply configures c with the mapping, header flags and expected header.
func (d *Definition) Apply(c *Converter) error {
	if err := c.SetMapping(d.Mapping); err != nil {
		return err
	}
	if err := c.SetSourceHasHeader(d.SourceHasHeader); err != nil {
		return err
	}
	if err := c.SetTargetHasHeader(d.TargetHasHeader); err != nil {
		return err
	}
	return c.SetExpectedHeader(d.ExpectedHeader)
}

// NewConverter returns a fresh Converter configured from d.
func (d *Definition) NewConverter() (*Converter, error) {
	c := NewConverter()
	if err := d.Apply(c); err != nil {
		return nil, err
	}
	return c, nil
}
