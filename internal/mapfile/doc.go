// Package mapfile loads conversion definitions from YAML files.
//
// A mapping file names the definition, describes the source and target
// formats and lists the target fields in order:
//
//	name: orders
//	description: ERP export to warehouse import
//	source_header: true
//	target_header: true
//	expected_header: [one, two, three]
//	source_format: {delimiter: ";", quote: "\"", escape: "\\"}
//	target_format: {delimiter: ",", force_quote: true}
//	fields:
//	  - {target: "2", source: two}       # copy by header name
//	  - {target: "1", source: 0}         # copy by position
//	  - target: full
//	    compute: concat                  # named function over the args
//	    args: [one, 2]
//	    params: {sep: " "}
//
// A source given as a YAML integer is a position; anything else is a header
// name. Quote a number ("2") to use it as a name.
//
// Computed fields call a function from a Registry. The built-in functions
// are concat, literal, upper, lower, trim and coalesce, plus the normalizers
// date, number, bool and us_state for spreadsheet exports. Callers can
// register their own.
package mapfile
