// Package core converts delimited-text rows from one column layout to
// another.
//
// A Mapping lists the target fields in order and gives each one a Mapper:
// copy a source field by header name (ByName), copy a source field by
// position (ByIndex), or compute a value from the whole row (Computed).
// A Converter streams rows from a RowReader, optionally validates the
// source header and row widths, maps every row and writes it to a
// RowWriter. Lifecycle hooks can skip rows, observe converted rows and
// observe completion.
//
// Service wraps the Converter with named Definitions, a concurrency
// limiter, cancellation, logging and run history.
package core
