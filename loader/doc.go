// Package loader merges configuration from heterogeneous sources into a
// single schema instance and drives its validation.
//
// Sources are applied cumulatively: raw mappings (with or without dotted
// keys), existing instances, JSON/YAML files selected by extension,
// prefix-filtered environment variables, tagged Go structs, koanf trees,
// and command-line flags generated from the schema. Later sources win per
// leaf; structural conflicts (an object overwriting a literal or the
// reverse) abort the offending Load call with a path-qualified
// MergeConflictError.
//
// Get validates the accumulated tree against the root schema and returns
// the typed instance, leaving the working state untouched for further
// loads.
package loader
