// Package csv reads and writes delimited text with configurable delimiter,
// quote and escape characters.
//
// encoding/csv fixes the quote character and has no escape character, so this
// package carries its own small tokenizer. Rows are plain []string; no value
// is ever converted.
package csv

import (
	"errors"
	"fmt"
)

// Default format characters.
const (
	DefaultDelimiter = ';'
	DefaultQuote     = '"'
	DefaultEscape    = '\\'
)

// ErrInvalidDialect is returned by Dialect.Validate.
var ErrInvalidDialect = errors.New("invalid csv dialect")

// Dialect describes the format characters of a delimited file.
type Dialect struct {
	Delimiter rune
	Quote     rune
	Escape    rune

	// ForceQuote quotes every written field instead of only those that need it.
	// Ignored by readers.
	ForceQuote bool
}

// DefaultDialect returns the ';' '"' '\' dialect with minimal quoting.
func DefaultDialect() Dialect {
	return Dialect{
		Delimiter: DefaultDelimiter,
		Quote:     DefaultQuote,
		Escape:    DefaultEscape,
	}
}

// Validate checks that the format characters are usable together.
func (d Dialect) Validate() error {
	switch {
	case d.Delimiter == 0:
		return fmt.Errorf("%w: delimiter is not set", ErrInvalidDialect)
	case d.Quote == 0:
		return fmt.Errorf("%w: quote is not set", ErrInvalidDialect)
	case d.Escape == 0:
		return fmt.Errorf("%w: escape is not set", ErrInvalidDialect)
	case d.Delimiter == d.Quote:
		return fmt.Errorf("%w: delimiter and quote are both %q", ErrInvalidDialect, d.Delimiter)
	case d.Delimiter == d.Escape:
		return fmt.Errorf("%w: delimiter and escape are both %q", ErrInvalidDialect, d.Delimiter)
	}
	for _, r := range []rune{d.Delimiter, d.Quote, d.Escape} {
		if r == '\n' || r == '\r' {
			return fmt.Errorf("%w: line breaks cannot be format characters", ErrInvalidDialect)
		}
	}
	return nil
}
