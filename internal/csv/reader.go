package csv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnterminatedQuote is returned when input ends inside a quoted field.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

// ParseError reports the line on which a malformed record started.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReaderOption configures a Reader.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	sanitize bool
	size     int64
}

// WithSanitize replaces invalid UTF-8 bytes with '?' before parsing.
func WithSanitize() ReaderOption {
	return func(c *readerConfig) { c.sanitize = true }
}

// WithSize sets the expected input size in bytes, enabling Progress.
func WithSize(n int64) ReaderOption {
	return func(c *readerConfig) { c.size = n }
}

// Reader parses delimited records one at a time.
//
// Quoted fields may contain delimiters and line breaks. Inside quotes a
// doubled quote stands for one quote. The escape character is kept in the
// value and the character after it is taken literally, so an escaped quote
// does not close the field. Blank lines are skipped. Both LF and CRLF end a
// record.
type Reader struct {
	d       Dialect
	br      *bufio.Reader
	counter *CountingReader
	line    int
}

// NewReader returns a Reader over r. A leading UTF-8 BOM is dropped.
func NewReader(r io.Reader, d Dialect, opts ...ReaderOption) *Reader {
	var cfg readerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	counter := NewCountingReader(r, cfg.size)
	var src io.Reader = counter
	if cfg.sanitize {
		src = NewSanitizer(src)
	}

	return &Reader{
		d:       d,
		br:      skipBOM(src),
		counter: counter,
	}
}

// Line returns the number of input lines consumed so far.
func (r *Reader) Line() int { return r.line }

// BytesRead returns the number of raw input bytes consumed so far.
func (r *Reader) BytesRead() int64 { return r.counter.BytesRead }

// Progress returns the share of the input read, 0-100, when the size is known.
func (r *Reader) Progress() int { return r.counter.Progress() }

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	for {
		rec, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
}

// readRecord parses one line. It returns a nil record without error for a
// blank line.
func (r *Reader) readRecord() ([]string, error) {
	r.line++
	start := r.line

	var (
		fields  []string
		field   strings.Builder
		quoted  bool
		atStart = true
		content bool
	)

	for {
		c, _, err := r.br.ReadRune()
		if err == io.EOF {
			if quoted {
				return nil, &ParseError{Line: start, Err: ErrUnterminatedQuote}
			}
			if !content {
				return nil, io.EOF
			}
			return append(fields, field.String()), nil
		}
		if err != nil {
			return nil, err
		}

		if quoted {
			switch {
			case c == r.d.Escape && c != r.d.Quote:
				// The escape stays in the value; the rune after it cannot close the field.
				field.WriteRune(c)
				next, _, err := r.br.ReadRune()
				if err == io.EOF {
					return nil, &ParseError{Line: start, Err: ErrUnterminatedQuote}
				}
				if err != nil {
					return nil, err
				}
				if next == '\n' {
					r.line++
				}
				field.WriteRune(next)
			case c == r.d.Quote:
				next, _, err := r.br.ReadRune()
				if err == nil && next == r.d.Quote {
					field.WriteRune(c)
					continue
				}
				if err == nil {
					_ = r.br.UnreadRune()
				} else if err != io.EOF {
					return nil, err
				}
				quoted = false
			default:
				if c == '\n' {
					r.line++
				}
				field.WriteRune(c)
			}
			continue
		}

		switch c {
		case r.d.Delimiter:
			content = true
			fields = append(fields, field.String())
			field.Reset()
			atStart = true
			continue
		case '\r':
			next, _, err := r.br.ReadRune()
			if err != nil && err != io.EOF {
				return nil, err
			}
			if err == nil && next != '\n' {
				_ = r.br.UnreadRune()
			}
			if err == io.EOF || next == '\n' {
				if !content {
					return nil, nil
				}
				return append(fields, field.String()), nil
			}
		case '\n':
			if !content {
				return nil, nil
			}
			return append(fields, field.String()), nil
		case r.d.Quote:
			if atStart {
				content = true
				quoted = true
				atStart = false
				continue
			}
		}

		content = true
		atStart = false
		field.WriteRune(c)
	}
}
