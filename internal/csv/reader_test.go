package csv

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func readAll(t *testing.T, r *Reader) [][]string {
	t.Helper()
	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		rows = append(rows, row)
	}
}

func TestReader_Read(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "simple rows",
			input: "one;two;three\na;b;c\nx;y;z\n",
			want:  [][]string{{"one", "two", "three"}, {"a", "b", "c"}, {"x", "y", "z"}},
		},
		{
			name:  "no trailing newline",
			input: "a;b\nc;d",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "crlf line endings",
			input: "a;b\r\nc;d\r\n",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "blank lines skipped",
			input: "a;b\n\n\nc;d\n",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "empty fields",
			input: "a;;c\n;\n",
			want:  [][]string{{"a", "", "c"}, {"", ""}},
		},
		{
			name:  "quoted delimiter",
			input: "\"a;b\";c\n",
			want:  [][]string{{"a;b", "c"}},
		},
		{
			name:  "quoted newline",
			input: "\"line1\nline2\";c\n",
			want:  [][]string{{"line1\nline2", "c"}},
		},
		{
			name:  "doubled quote",
			input: "\"say \"\"hi\"\"\";x\n",
			want:  [][]string{{"say \"hi\"", "x"}},
		},
		{
			name:  "escaped quote",
			input: "\"say \\\"hi\\\"\";x\n",
			want:  [][]string{{"say \\\"hi\\\"", "x"}},
		},
		{
			name:  "escaped escape",
			input: "\"a\\\\b\"\n",
			want:  [][]string{{"a\\\\b"}},
		},
		{
			name:  "escape before a plain letter is kept",
			input: "\"C:\\temp\\new\";\"a \\\"b\\\" c\"\n",
			want:  [][]string{{"C:\\temp\\new", "a \\\"b\\\" c"}},
		},
		{
			name:  "quoted empty field is not a blank line",
			input: "\"\"\n",
			want:  [][]string{{""}},
		},
		{
			name:  "quote inside unquoted field is literal",
			input: "ab\"c;d\n",
			want:  [][]string{{"ab\"c", "d"}},
		},
		{
			name:  "BOM is dropped",
			input: "\xEF\xBB\xBFone;two\n",
			want:  [][]string{{"one", "two"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, NewReader(strings.NewReader(tt.input), DefaultDialect()))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReader_CustomDialect(t *testing.T) {
	d := Dialect{Delimiter: ',', Quote: '\'', Escape: '\''}
	r := NewReader(strings.NewReader("a,'b,c','it''s'\n"), d)

	got := readAll(t, r)
	want := [][]string{{"a", "b,c", "it's"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReader_UnterminatedQuote(t *testing.T) {
	r := NewReader(strings.NewReader("a;b\n\"open;c\n"), DefaultDialect())

	if _, err := r.Read(); err != nil {
		t.Fatalf("first Read() error = %v", err)
	}

	_, err := r.Read()
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Fatalf("second Read() error = %v, want ErrUnterminatedQuote", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not *ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2", pe.Line)
	}
}

func TestReader_ErrorAfterCarriageReturn(t *testing.T) {
	errBroken := errors.New("connection reset")
	src := io.MultiReader(strings.NewReader("a;b\r"), iotest.ErrReader(errBroken))
	r := NewReader(src, DefaultDialect())

	row, err := r.Read()
	if !errors.Is(err, errBroken) {
		t.Fatalf("Read() = %q, %v, want %v", row, err, errBroken)
	}
}

func TestReader_Sanitize(t *testing.T) {
	input := []byte{'a', ';', 'b', 0x80, 'c', '\n'}
	r := NewReader(strings.NewReader(string(input)), DefaultDialect(), WithSanitize())

	got := readAll(t, r)
	want := [][]string{{"a", "b?c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReader_Progress(t *testing.T) {
	input := "a;b\nc;d\n"
	r := NewReader(strings.NewReader(input), DefaultDialect(), WithSize(int64(len(input))))

	readAll(t, r)

	if r.BytesRead() != int64(len(input)) {
		t.Errorf("BytesRead() = %d, want %d", r.BytesRead(), len(input))
	}
	if r.Progress() != 100 {
		t.Errorf("Progress() = %d, want 100", r.Progress())
	}
}
