package core

// validation.go checks the shape of the source file against an expected
// header. Values are never inspected; only field names, order and counts.

import "slices"

// MakeHeaderIndex builds the name -> position table for a source header.
// Names are used exactly as read. When a name repeats, the last position wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// ValidateHeader reports whether observed equals expected element for
// element, in order.
func ValidateHeader(observed, expected []string) bool {
	return slices.Equal(observed, expected)
}

// ValidateRowWidth reports whether row has one field per expected column.
func ValidateRowWidth(row, expected []string) bool {
	return len(row) == len(expected)
}
