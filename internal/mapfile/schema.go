package mapfile

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/csvconvert/internal/core"
	"gopkg.in/yaml.v3"
)

// File is the YAML form of one conversion definition.
type File struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description,omitempty"`
	SourceHeader   *bool    `yaml:"source_header,omitempty"`
	TargetHeader   *bool    `yaml:"target_header,omitempty"`
	ExpectedHeader []string `yaml:"expected_header,omitempty"`
	Sanitize       bool     `yaml:"sanitize,omitempty"`
	SourceFormat   Format   `yaml:"source_format,omitempty"`
	TargetFormat   Format   `yaml:"target_format,omitempty"`
	Fields         []Field  `yaml:"fields"`
}

// Format overrides dialect characters. Empty values keep the defaults; an
// unset ForceQuote keeps the default quoting mode.
type Format struct {
	Delimiter  string `yaml:"delimiter,omitempty"`
	Quote      string `yaml:"quote,omitempty"`
	Escape     string `yaml:"escape,omitempty"`
	ForceQuote *bool  `yaml:"force_quote,omitempty"`
}

// Field maps one target field. Exactly one of Source and Compute is set.
type Field struct {
	Target  string            `yaml:"target"`
	Source  *Ref              `yaml:"source,omitempty"`
	Compute string            `yaml:"compute,omitempty"`
	Args    []Ref             `yaml:"args,omitempty"`
	Params  map[string]string `yaml:"params,omitempty"`
}

// Ref points at a source field by position or by header name.
type Ref struct {
	Name    string
	Index   int
	IsIndex bool
}

// NameRef returns a by-name reference.
func NameRef(name string) Ref { return Ref{Name: name} }

// IndexRef returns a by-position reference.
func IndexRef(i int) Ref { return Ref{Index: i, IsIndex: true} }

// UnmarshalYAML decodes an integer scalar as a position and any other scalar
// as a name.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: source reference must be a name or an index", node.Line)
	}

	if node.Tag == "!!int" {
		var i int

		if err := node.Decode(&i); err != nil {
			return err
		}

		*r = IndexRef(i)

		return nil
	}

	*r = NameRef(node.Value)

	return nil
}

// MarshalYAML writes positions as integers and names as strings.
func (r Ref) MarshalYAML() (any, error) {
	if r.IsIndex {
		return r.Index, nil
	}
	return r.Name, nil
}

// Mapper returns the core mapper for r.
func (r Ref) Mapper() core.Mapper {
	if r.IsIndex {
		return core.ByIndex(r.Index)
	}
	return core.ByName(r.Name)
}

func (r Ref) String() string {
	if r.IsIndex {
		return strconv.Itoa(r.Index)
	}
	return strconv.Quote(r.Name)
}
