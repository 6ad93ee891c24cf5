package core

// converter.go runs one conversion from a row source to a row target.
//
// The run is a single synchronous pass:
//  1. Read the source header (if any) and validate it against the expected header
//  2. Write the target header (if enabled)
//  3. For every source row: check width, ask the before-row hook, map, write,
//     notify the after-row hook
//  4. Notify the completion hook
//
// Any error ends the run immediately. Rows already written stay written.

import (
	"errors"
	"fmt"
	"io"
)

// Converter converts one source into one target. A Converter is single-use:
// after Convert has been called, every further Convert or setter call fails
// with ErrAlreadyRun.
type Converter struct {
	mapping         *Mapping
	sourceHasHeader bool
	targetHasHeader bool
	expectedHeader  []string

	beforeRow    BeforeRowFunc
	rowConverted AfterRowFunc
	completed    CompletedFunc

	counters RunCounters
	used     bool
}

// NewConverter returns a converter with both header flags enabled, no
// expected header and no hooks.
func NewConverter() *Converter {
	return &Converter{
		sourceHasHeader: true,
		targetHasHeader: true,
		beforeRow:       proceedAlways,
		rowConverted:    ignoreConverted,
		completed:       ignoreCompleted,
	}
}

// SetMapping sets the target fields and their mappers.
func (c *Converter) SetMapping(m *Mapping) error {
	if c.used {
		return ErrAlreadyRun
	}
	if m == nil || m.Len() == 0 {
		return fmt.Errorf("%w: mapping has no target fields", ErrConfiguration)
	}
	c.mapping = m
	return nil
}

// SetSourceHasHeader controls whether the first source row is a header.
func (c *Converter) SetSourceHasHeader(v bool) error {
	if c.used {
		return ErrAlreadyRun
	}
	c.sourceHasHeader = v
	return nil
}

// SetTargetHasHeader controls whether the target header row is written.
func (c *Converter) SetTargetHasHeader(v bool) error {
	if c.used {
		return ErrAlreadyRun
	}
	c.targetHasHeader = v
	return nil
}

// SetExpectedHeader enables header and row-width validation. A nil header
// disables validation.
func (c *Converter) SetExpectedHeader(header []string) error {
	if c.used {
		return ErrAlreadyRun
	}
	if header == nil {
		c.expectedHeader = nil
		return nil
	}
	c.expectedHeader = append(make([]string, 0, len(header)), header...)
	return nil
}

// OnBeforeRow registers the hook called before each data row is mapped.
func (c *Converter) OnBeforeRow(fn BeforeRowFunc) error {
	if c.used {
		return ErrAlreadyRun
	}
	if fn == nil {
		return fmt.Errorf("%w: before-row hook is not a function", ErrConfiguration)
	}
	c.beforeRow = fn
	return nil
}

// OnRowConverted registers the hook called after each written row,
// including the target header.
func (c *Converter) OnRowConverted(fn AfterRowFunc) error {
	if c.used {
		return ErrAlreadyRun
	}
	if fn == nil {
		return fmt.Errorf("%w: row-converted hook is not a function", ErrConfiguration)
	}
	c.rowConverted = fn
	return nil
}

// OnCompleted registers the hook called once after a successful run.
func (c *Converter) OnCompleted(fn CompletedFunc) error {
	if c.used {
		return ErrAlreadyRun
	}
	if fn == nil {
		return fmt.Errorf("%w: completed hook is not a function", ErrConfiguration)
	}
	c.completed = fn
	return nil
}

// Counters returns a snapshot of the run counters.
func (c *Converter) Counters() RunCounters { return c.counters }

// RowsSaved returns the number of rows written to the target, header included.
func (c *Converter) RowsSaved() int { return c.counters.Saved }

// Convert reads every row from src and writes the mapped rows to dst. If dst
// has a Flush method it is called before Convert returns, whether or not the
// run succeeded.
func (c *Converter) Convert(src RowReader, dst RowWriter) (err error) {
	if c.used {
		return ErrAlreadyRun
	}
	c.used = true

	if c.mapping == nil {
		return fmt.Errorf("%w: no mapping set", ErrConfiguration)
	}
	if src == nil || dst == nil {
		return fmt.Errorf("%w: source and target are required", ErrConfiguration)
	}

	if f, ok := dst.(flusher); ok {
		defer func() {
			if ferr := f.Flush(); ferr != nil && err == nil {
				err = fmt.Errorf("%w: flush target: %w", ErrStream, ferr)
			}
		}()
	}

	sourceHeader, idx, err := c.readHeader(src)
	if err != nil {
		return err
	}

	if c.targetHasHeader {
		targetHeader := c.mapping.Fields()
		if err := c.write(dst, targetHeader); err != nil {
			return err
		}
		if err := c.rowConverted(c.counters.Saved, sourceHeader, targetHeader); err != nil {
			return fmt.Errorf("%w: row converted: %w", ErrHook, err)
		}
	}

	for {
		row, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: read source row %d: %w", ErrStream, c.counters.Processed+1, err)
		}
		c.counters.Processed++

		if c.expectedHeader != nil && !ValidateRowWidth(row, c.expectedHeader) {
			return &RowError{
				Row: c.counters.Processed,
				Err: fmt.Errorf("%w: row has %d fields, expected %d", ErrInvalidSourceRow, len(row), len(c.expectedHeader)),
			}
		}

		proceed, err := c.beforeRow(c.counters.Processed, row)
		if err != nil {
			return &RowError{Row: c.counters.Processed, Err: fmt.Errorf("%w: before row: %w", ErrHook, err)}
		}
		if !proceed {
			c.counters.Skipped++
			continue
		}

		target, err := c.mapping.Map(row, idx)
		if err != nil {
			var re *RowError
			if errors.As(err, &re) {
				re.Row = c.counters.Processed
			}
			return err
		}

		if err := c.write(dst, target); err != nil {
			return err
		}
		if err := c.rowConverted(c.counters.Saved, row, target); err != nil {
			return &RowError{Row: c.counters.Processed, Err: fmt.Errorf("%w: row converted: %w", ErrHook, err)}
		}
	}

	c.completed(c.counters.Saved)
	return nil
}

// readHeader consumes the source header when one is expected and validates
// it. In headerless mode it returns an empty index.
func (c *Converter) readHeader(src RowReader) ([]string, HeaderIndex, error) {
	if !c.sourceHasHeader {
		return []string{}, HeaderIndex{}, nil
	}

	// The header read counts as processed even when the source is empty.
	header, err := src.Read()
	switch {
	case errors.Is(err, io.EOF):
		header = []string{}
	case err != nil:
		return nil, nil, fmt.Errorf("%w: read source header: %w", ErrStream, err)
	}
	c.counters.Processed++

	if c.expectedHeader != nil && !ValidateHeader(header, c.expectedHeader) {
		return nil, nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidSourceHeader, header, c.expectedHeader)
	}

	return header, MakeHeaderIndex(header), nil
}

func (c *Converter) write(dst RowWriter, row []string) error {
	if err := dst.Write(row); err != nil {
		return fmt.Errorf("%w: write target row %d: %w", ErrStream, c.counters.Saved+1, err)
	}
	c.counters.Saved++
	return nil
}
