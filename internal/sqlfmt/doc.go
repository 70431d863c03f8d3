// Package sqlfmt renders reduced SQL expression trees as dialect-specific
// SQL text.
//
// Format walks a tree made only of SQL node kinds (Select, Column, Join,
// CreateTable, ...) and writes text through a Dialect. Generic nodes that
// survived the optimizer are rejected as UNSUPPORTED_CONSTRUCT; the
// formatter never guesses.
//
// PARAMETERS:
//
// Constants become positional parameters by default. The marker comes from
// Dialect.Placeholder and values are appended to Result.Params in text
// order. DDL statements and Options.InlineConstants write literals instead.
//
// IDENTIFIERS:
//
// Every identifier is normalised to Unicode NFC before the dialect quotes
// it, so the same logical name always produces the same bytes.
package sqlfmt
