package core

// mapper.go resolves one target field from a source row.
//
// A Mapper is one of three forms, fixed when it is built:
//   - ByName: look the name up in the header index, then read the row
//   - ByIndex: read the row at a zero-based position
//   - Computed: call a function with the full row and the header index
//
// Resolution never mutates the row and has no side effects of its own.

import (
	"fmt"
	"strconv"
)

// MapperKind identifies the form of a Mapper.
type MapperKind int

const (
	MapByName MapperKind = iota
	MapByIndex
	MapComputed
)

// String returns a short name for the kind.
func (k MapperKind) String() string {
	switch k {
	case MapByName:
		return "name"
	case MapByIndex:
		return "index"
	case MapComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// ComputeFunc derives a target value from the current source row. In
// headerless mode idx is empty but never nil.
type ComputeFunc func(row []string, idx HeaderIndex) (string, error)

// Mapper produces the value of one target field. The zero value is not a
// valid mapper; use ByName, ByIndex or Computed.
type Mapper struct {
	kind  MapperKind
	name  string
	index int
	fn    ComputeFunc
}

// ByName maps a target field to the source field with the given header name.
func ByName(name string) Mapper {
	return Mapper{kind: MapByName, name: name}
}

// ByIndex maps a target field to the source field at position i.
func ByIndex(i int) Mapper {
	return Mapper{kind: MapByIndex, index: i}
}

// Computed maps a target field to the result of fn.
func Computed(fn ComputeFunc) Mapper {
	return Mapper{kind: MapComputed, fn: fn}
}

// Kind reports which form the mapper has.
func (m Mapper) Kind() MapperKind { return m.kind }

// String describes the mapper for logs and error messages.
func (m Mapper) String() string {
	switch m.kind {
	case MapByName:
		return "name:" + m.name
	case MapByIndex:
		return "index:" + strconv.Itoa(m.index)
	default:
		return m.kind.String()
	}
}

// valid reports whether the mapper can be resolved at all.
func (m Mapper) valid() error {
	switch m.kind {
	case MapByName:
		if m.name == "" {
			return fmt.Errorf("%w: empty source field name", ErrConfiguration)
		}
	case MapByIndex:
		if m.index < 0 {
			return fmt.Errorf("%w: negative source field index %d", ErrConfiguration, m.index)
		}
	case MapComputed:
		if m.fn == nil {
			return fmt.Errorf("%w: computed mapper has no function", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unrecognized mapper kind %d", ErrConfiguration, m.kind)
	}
	return nil
}

// Resolve returns the target value for row.
func (m Mapper) Resolve(row []string, idx HeaderIndex) (string, error) {
	switch m.kind {
	case MapByName:
		pos, ok := idx[m.name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrFieldNotFound, m.name)
		}
		return fieldAt(row, pos)
	case MapByIndex:
		return fieldAt(row, m.index)
	case MapComputed:
		if m.fn == nil {
			return "", fmt.Errorf("%w: computed mapper has no function", ErrConfiguration)
		}
		if idx == nil {
			idx = HeaderIndex{}
		}
		v, err := m.fn(row, idx)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMapping, err)
		}
		return v, nil
	default:
		return "", fmt.Errorf("%w: unrecognized mapper kind %d", ErrConfiguration, m.kind)
	}
}

func fieldAt(row []string, pos int) (string, error) {
	if pos < 0 || pos >= len(row) {
		return "", fmt.Errorf("%w: field %d requested, row has %d fields", ErrInvalidSourceRow, pos, len(row))
	}
	return row[pos], nil
}
