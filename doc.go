// Package domgen holds the errors shared by the model, the SQL derivation
// and the generators.
//
// A model is declared with package schema, given a relational shape by
// package dialect/sqlschema and rendered by the generators under
// compiler/gen. Package compiler wires them together and cmd/domgen exposes
// them on the command line.
package domgen
