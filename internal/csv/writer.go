package csv

import (
	"bufio"
	"io"
	"strings"
)

// Writer writes delimited records. Output is buffered; call Flush when done.
type Writer struct {
	d Dialect
	w *bufio.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer, d Dialect) *Writer {
	return &Writer{d: d, w: bufio.NewWriter(w)}
}

// Write writes one record terminated by '\n'.
func (w *Writer) Write(row []string) error {
	for i, field := range row {
		if i > 0 {
			if _, err := w.w.WriteRune(w.d.Delimiter); err != nil {
				return err
			}
		}
		if err := w.writeField(field); err != nil {
			return err
		}
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeField(field string) error {
	if !w.d.ForceQuote && !w.needsQuotes(field) {
		_, err := w.w.WriteString(field)
		return err
	}

	if _, err := w.w.WriteRune(w.d.Quote); err != nil {
		return err
	}
	// A quote right after a pending escape is already protected.
	escaped := false
	for _, r := range field {
		switch {
		case r == w.d.Escape && r != w.d.Quote:
			escaped = !escaped
		case r == w.d.Quote && !escaped:
			if _, err := w.w.WriteRune(r); err != nil {
				return err
			}
		default:
			escaped = false
		}
		if _, err := w.w.WriteRune(r); err != nil {
			return err
		}
	}
	_, err := w.w.WriteRune(w.d.Quote)
	return err
}

// needsQuotes reports whether field would not read back unchanged unquoted.
func (w *Writer) needsQuotes(field string) bool {
	if field == "" {
		return false
	}
	return strings.ContainsFunc(field, func(r rune) bool {
		switch r {
		case w.d.Delimiter, w.d.Quote, w.d.Escape, '\r', '\n', '\t', ' ':
			return true
		}
		return false
	})
}
