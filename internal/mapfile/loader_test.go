package mapfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/JonMunkholm/csvconvert/internal/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersYAML = `
name: orders
description: example mapping
expected_header: [one, two, three]
fields:
  - {target: "2", source: two}
  - {target: "1", source: 0}
  - target: concat
    compute: concat
    args: [one, two]
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(ordersYAML))
	require.NoError(t, err)

	assert.Equal(t, "orders", f.Name)
	assert.Equal(t, "example mapping", f.Description)
	assert.Nil(t, f.SourceHeader)
	assert.Equal(t, []string{"one", "two", "three"}, f.ExpectedHeader)
	require.Len(t, f.Fields, 3)

	assert.Equal(t, NameRef("two"), *f.Fields[0].Source)
	assert.Equal(t, IndexRef(0), *f.Fields[1].Source)
	assert.Equal(t, "concat", f.Fields[2].Compute)
	assert.Equal(t, []Ref{NameRef("one"), NameRef("two")}, f.Fields[2].Args)
}

func TestParse_RefKinds(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want Ref
	}{
		{name: "plain int is index", yaml: `source: 3`, want: IndexRef(3)},
		{name: "quoted int is name", yaml: `source: "3"`, want: NameRef("3")},
		{name: "word is name", yaml: `source: amount`, want: NameRef("amount")},
		{name: "negative int is index", yaml: `source: -1`, want: IndexRef(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte("name: x\nfields:\n  - target: t\n    " + tt.yaml + "\n"))
			require.NoError(t, err)
			require.Len(t, f.Fields, 1)
			assert.Equal(t, tt.want, *f.Fields[0].Source)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: ""},
		{name: "unknown key", yaml: "name: x\nfeilds: []\n"},
		{name: "source is a list", yaml: "name: x\nfields:\n  - target: t\n    source: [a, b]\n"},
		{name: "not yaml", yaml: "name: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestMarshal_RoundTripsRefs(t *testing.T) {
	f, err := Parse([]byte(ordersYAML))
	require.NoError(t, err)

	data, err := Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source: 0")
	assert.Contains(t, string(data), "source: two")
}

func TestLoader_BuildAndConvert(t *testing.T) {
	f, err := Parse([]byte(ordersYAML))
	require.NoError(t, err)

	def, err := NewLoader(csv.DefaultDialect()).Build(f)
	require.NoError(t, err)

	assert.Equal(t, "orders", def.Name)
	assert.True(t, def.SourceHasHeader)
	assert.True(t, def.TargetHasHeader)
	assert.Equal(t, []string{"2", "1", "concat"}, def.Mapping.Fields())

	conv, err := def.NewConverter()
	require.NoError(t, err)

	var out bytes.Buffer
	src := csv.NewReader(strings.NewReader("one;two;three\n1;2;3\n"), def.Source)
	dst := csv.NewWriter(&out, def.Target)
	require.NoError(t, conv.Convert(src, dst))

	assert.Equal(t, "2;1;concat\n2;1;12\n", out.String())
}

func TestLoader_BuildFormats(t *testing.T) {
	f, err := Parse([]byte(`
name: formats
source_header: false
target_header: false
source_format: {delimiter: ",", quote: "'", escape: "!"}
target_format: {delimiter: "|", force_quote: true}
fields:
  - {target: a, source: 1}
  - target: b
    compute: literal
    params: {value: fixed}
`))
	require.NoError(t, err)

	defaults := csv.DefaultDialect()
	def, err := NewLoader(defaults).Build(f)
	require.NoError(t, err)

	assert.False(t, def.SourceHasHeader)
	assert.False(t, def.TargetHasHeader)
	assert.Equal(t, csv.Dialect{Delimiter: ',', Quote: '\'', Escape: '!'}, def.Source)
	assert.Equal(t, csv.Dialect{Delimiter: '|', Quote: defaults.Quote, Escape: defaults.Escape, ForceQuote: true}, def.Target)

	conv, err := def.NewConverter()
	require.NoError(t, err)

	var out bytes.Buffer
	dst := csv.NewWriter(&out, def.Target)
	require.NoError(t, conv.Convert(csv.NewReader(strings.NewReader("x,'y,z'\n"), def.Source), dst))
	assert.Equal(t, `"y,z"|"fixed"`+"\n", out.String())
}

func TestLoader_BuildForceQuoteOverride(t *testing.T) {
	base := csv.DefaultDialect()
	base.ForceQuote = true

	tests := []struct {
		name string
		yaml string
		want bool
	}{
		{name: "unset keeps default", yaml: "", want: true},
		{name: "false turns it off", yaml: "target_format: {force_quote: false}\n", want: false},
		{name: "true keeps it on", yaml: "target_format: {force_quote: true}\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte("name: quoting\n" + tt.yaml + "fields:\n  - {target: a, source: 0}\n"))
			require.NoError(t, err)

			def, err := NewLoader(base).Build(f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Target.ForceQuote)
			assert.True(t, def.Source.ForceQuote)
		})
	}
}

func TestLoader_BuildRejectsConflictingDialect(t *testing.T) {
	f, err := Parse([]byte(`
name: clash
source_format: {delimiter: "\""}
fields:
  - {target: a, source: 0}
`))
	require.NoError(t, err)

	_, err = NewLoader(csv.DefaultDialect()).Build(f)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Contains(t, err.Error(), "source format")
}

func TestLoader_CustomFunction(t *testing.T) {
	l := NewLoader(csv.DefaultDialect())
	require.NoError(t, l.Funcs.Register(FuncSpec{
		Name: "reverse", MinArgs: 1, MaxArgs: 1,
		Fn: func(args []string, _ map[string]string) (string, error) {
			r := []rune(args[0])
			for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
				r[i], r[j] = r[j], r[i]
			}
			return string(r), nil
		},
	}))

	f, err := Parse([]byte("name: rev\nsource_header: false\ntarget_header: false\nfields:\n  - {target: r, compute: reverse, args: [0]}\n"))
	require.NoError(t, err)

	def, err := l.Build(f)
	require.NoError(t, err)

	conv, err := def.NewConverter()
	require.NoError(t, err)

	var out bytes.Buffer
	dst := csv.NewWriter(&out, def.Target)
	require.NoError(t, conv.Convert(csv.NewReader(strings.NewReader("abc\n"), def.Source), dst))
	assert.Equal(t, "cba\n", out.String())
}

func TestLoader_ComputedArgMissingFromHeader(t *testing.T) {
	f, err := Parse([]byte("name: m\nfields:\n  - {target: u, compute: upper, args: [nope]}\n"))
	require.NoError(t, err)

	def, err := NewLoader(csv.DefaultDialect()).Build(f)
	require.NoError(t, err)

	conv, err := def.NewConverter()
	require.NoError(t, err)

	var out bytes.Buffer
	err = conv.Convert(csv.NewReader(strings.NewReader("a\nb\n"), def.Source), csv.NewWriter(&out, def.Target))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMapping)
	assert.ErrorIs(t, err, core.ErrFieldNotFound)

	var rowErr *core.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "u", rowErr.Field)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFile_NameFromStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invoices.yaml", "fields:\n  - {target: a, source: 0}\n")

	f, err := LoadFile(filepath.Join(dir, "invoices.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "invoices", f.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yml", "name: beta\nfields:\n  - {target: a, source: 0}\n")
	writeFile(t, dir, "a.yaml", "fields:\n  - {target: a, source: 0}\n")
	writeFile(t, dir, "notes.txt", "not a mapping")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	defs, err := NewLoader(csv.DefaultDialect()).LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].Name)
	assert.Equal(t, "beta", defs[1].Name)
}

func TestLoader_LoadDirReportsAllFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", "name: good\nfields:\n  - {target: a, source: 0}\n")
	writeFile(t, dir, "dup.yaml", "name: good\nfields:\n  - {target: a, source: 0}\n")
	writeFile(t, dir, "bad.yaml", "name: bad\nfields: []\n")
	writeFile(t, dir, "broken.yaml", "name: [\n")

	defs, err := NewLoader(csv.DefaultDialect()).LoadDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	msg := err.Error()
	assert.Contains(t, msg, "bad.yaml")
	assert.Contains(t, msg, "broken.yaml")
	assert.Contains(t, msg, `mapping "good" defined in both`)

	// dup.yaml sorts before good.yaml, so it wins.
	require.Len(t, defs, 1)
	assert.Equal(t, "good", defs[0].Name)
}

func TestLoader_LoadDirMissing(t *testing.T) {
	_, err := NewLoader(csv.DefaultDialect()).LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
