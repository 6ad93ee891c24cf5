package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvconvert/internal/csv"
)

func testMapping() *Mapping {
	return NewMapping().
		MustSet("B", ByName("b")).
		MustSet("A", ByIndex(0))
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Definition)
		wantErr []string
	}{
		{name: "valid", mutate: func(*Definition) {}},
		{name: "missing name", mutate: func(d *Definition) { d.Name = "" }, wantErr: []string{"name is required"}},
		{name: "empty mapping", mutate: func(d *Definition) { d.Mapping = NewMapping() }, wantErr: []string{"mapping has no fields"}},
		{
			name: "expected header without source header",
			mutate: func(d *Definition) {
				d.SourceHasHeader = false
				d.ExpectedHeader = []string{"a"}
			},
			wantErr: []string{"expected header set"},
		},
		{
			name: "all problems reported",
			mutate: func(d *Definition) {
				d.Name = ""
				d.Mapping = nil
				d.Source = csv.Dialect{}
				d.Target.Quote = d.Target.Delimiter
			},
			wantErr: []string{"name is required", "mapping has no fields", "source format", "target format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := NewDefinition("orders", testMapping())
			tt.mutate(def)

			err := def.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("Validate() error = %v, want ErrConfiguration", err)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error = %q, want it to contain %q", err, want)
				}
			}
		})
	}
}

func TestDefinition_Apply(t *testing.T) {
	def := NewDefinition("orders", testMapping())
	def.TargetHasHeader = false
	def.ExpectedHeader = []string{"a", "b"}

	conv, err := def.NewConverter()
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}

	src := &sliceSource{rows: [][]string{{"a", "b"}, {"x", "y"}}}
	dst := &sliceTarget{}
	if err := conv.Convert(src, dst); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := [][]string{{"y", "x"}}
	if len(dst.rows) != len(want) || strings.Join(dst.rows[0], ",") != "y,x" {
		t.Errorf("rows = %v, want %v", dst.rows, want)
	}
}

func TestDefinition_ApplyToUsedConverter(t *testing.T) {
	conv := NewConverter()
	_ = conv.Convert(&sliceSource{}, &sliceTarget{})

	err := NewDefinition("orders", testMapping()).Apply(conv)
	if !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("Apply() error = %v, want ErrAlreadyRun", err)
	}
}
