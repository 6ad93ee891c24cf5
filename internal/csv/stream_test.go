package csv

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "file with BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, "hello;world"...), expected: "hello;world"},
		{name: "file without BOM", input: []byte("hello;world"), expected: "hello;world"},
		{name: "empty file", input: []byte{}, expected: ""},
		{name: "only BOM", input: []byte{0xEF, 0xBB, 0xBF}, expected: ""},
		{name: "partial BOM", input: []byte{0xEF, 0xBB, 'a'}, expected: string([]byte{0xEF, 0xBB, 'a'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(skipBOM(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestSanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "valid ASCII", input: []byte("hello;world"), expected: "hello;world"},
		{name: "valid multibyte", input: []byte("grüße;welt"), expected: "grüße;welt"},
		{name: "invalid byte replaced", input: []byte{'h', 'e', 0x80, 'l', 'o'}, expected: "he?lo"},
		{name: "truncated sequence at EOF", input: []byte{'a', 0xC3}, expected: "a?"},
		{name: "empty input", input: []byte{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewSanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestSanitizer_SplitSequence(t *testing.T) {
	// One byte per Read forces multi-byte runes across reads.
	input := []byte("añb")
	result, err := io.ReadAll(NewSanitizer(iotest.OneByteReader(bytes.NewReader(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "añb" {
		t.Errorf("got %q, want %q", string(result), "añb")
	}
}

func TestCountingReader(t *testing.T) {
	c := NewCountingReader(bytes.NewReader(make([]byte, 50)), 200)
	if _, err := io.ReadAll(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BytesRead != 50 {
		t.Errorf("BytesRead = %d, want 50", c.BytesRead)
	}
	if c.Progress() != 25 {
		t.Errorf("Progress() = %d, want 25", c.Progress())
	}

	unknown := NewCountingReader(bytes.NewReader([]byte("abc")), 0)
	io.ReadAll(unknown)
	if unknown.Progress() != 0 {
		t.Errorf("Progress() with unknown total = %d, want 0", unknown.Progress())
	}
}
