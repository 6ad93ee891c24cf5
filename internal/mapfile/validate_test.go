package mapfile

import (
	"testing"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		file  *File
		paths []string
	}{
		{
			name: "valid",
			file: &File{Name: "ok", Fields: []Field{{Target: "a", Source: ptr(IndexRef(0))}}},
		},
		{
			name:  "nil file",
			file:  nil,
			paths: []string{""},
		},
		{
			name:  "missing name and fields",
			file:  &File{},
			paths: []string{"name", "fields"},
		},
		{
			name: "field problems",
			file: &File{Name: "x", Fields: []Field{
				{Source: ptr(NameRef("a"))},
				{Target: "b"},
				{Target: "c", Source: ptr(NameRef("c")), Compute: "upper"},
				{Target: "c", Source: ptr(IndexRef(-2))},
				{Target: "e", Source: ptr(NameRef(""))},
				{Target: "f", Source: ptr(NameRef("f")), Args: []Ref{NameRef("g")}},
			}},
			paths: []string{
				"fields[0].target",
				"fields[1]",
				"fields[2]",
				"fields[3].target",
				"fields[3].source",
				"fields[4].source",
				"fields[5]",
			},
		},
		{
			name: "compute problems",
			file: &File{Name: "x", Fields: []Field{
				{Target: "a", Compute: "nope"},
				{Target: "b", Compute: "upper"},
				{Target: "c", Compute: "upper", Args: []Ref{IndexRef(0), IndexRef(1)}},
				{Target: "d", Compute: "literal", Params: map[string]string{"val": "x"}},
				{Target: "e", Compute: "concat", Args: []Ref{IndexRef(-1)}},
			}},
			paths: []string{
				"fields[0].compute",
				"fields[1].args",
				"fields[2].args",
				"fields[3].params",
				"fields[4].args[0]",
			},
		},
		{
			name: "header and format problems",
			file: &File{
				Name:           "x",
				SourceHeader:   ptr(false),
				ExpectedHeader: []string{"a"},
				SourceFormat:   Format{Delimiter: ";;"},
				TargetFormat:   Format{Quote: "ab", Escape: "é"},
				Fields:         []Field{{Target: "a", Source: ptr(IndexRef(0))}},
			},
			paths: []string{"expected_header", "source_format.delimiter", "target_format.quote"},
		},
		{
			name: "names without source header",
			file: &File{
				Name:         "x",
				SourceHeader: ptr(false),
				Fields: []Field{
					{Target: "a", Source: ptr(NameRef("a"))},
					{Target: "b", Source: ptr(IndexRef(1))},
					{Target: "c", Compute: "concat", Args: []Ref{IndexRef(0), NameRef("c")}},
				},
			},
			paths: []string{"fields[0].source", "fields[2].args[1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, NewRegistry())
			if len(tt.paths) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)

			var got []string
			for _, p := range verr.Problems {
				got = append(got, p.Path)
			}
			assert.Equal(t, tt.paths, got)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Mapping: "orders", Problems: []Problem{
		{Path: "name", Message: "is required"},
		{Message: "general"},
	}}
	assert.Equal(t, `mapping "orders": 2 problem(s): name: is required; general`, err.Error())
}
