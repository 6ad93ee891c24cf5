package core

import "fmt"

// Mapping is the ordered set of target fields and the mapper for each.
// Field order defines the column order of the target header and rows.
type Mapping struct {
	fields  []string
	mappers map[string]Mapper
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{mappers: make(map[string]Mapper)}
}

// Set assigns mapper to target. Setting a field twice replaces the mapper
// but keeps the position of the first Set.
func (m *Mapping) Set(target string, mapper Mapper) error {
	if err := mapper.valid(); err != nil {
		return fmt.Errorf("target field %q: %w", target, err)
	}
	if m.mappers == nil {
		m.mappers = make(map[string]Mapper)
	}
	if _, ok := m.mappers[target]; !ok {
		m.fields = append(m.fields, target)
	}
	m.mappers[target] = mapper
	return nil
}

// MustSet is like Set but panics on an invalid mapper. Intended for mappings
// built from literals.
func (m *Mapping) MustSet(target string, mapper Mapper) *Mapping {
	if err := m.Set(target, mapper); err != nil {
		panic(err)
	}
	return m
}

// Fields returns the target field names in order.
func (m *Mapping) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// Len returns the number of target fields.
func (m *Mapping) Len() int { return len(m.fields) }

// Mapper returns the mapper for target.
func (m *Mapping) Mapper(target string) (Mapper, bool) {
	mp, ok := m.mappers[target]
	return mp, ok
}

// Map builds the target row for one source row.
func (m *Mapping) Map(row []string, idx HeaderIndex) ([]string, error) {
	out := make([]string, 0, len(m.fields))
	for _, field := range m.fields {
		v, err := m.mappers[field].Resolve(row, idx)
		if err != nil {
			return nil, &RowError{Field: field, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
