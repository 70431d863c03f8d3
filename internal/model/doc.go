// Package model defines the read-only contract between the query core and
// the entity mapping layer.
//
// The mapping layer itself lives outside this module. The core only needs a
// lookup from a declared member to its persisted column name, primary-key
// status and foreign-type descriptor, which is what TypeDescriptor and
// PropertyDescriptor expose. Registry is a small in-memory implementation of
// Model used by the schema loader, the CLI and the tests.
//
// This package imports nothing internal. Every other internal package may
// import it.
//
// KEY ORDER:
//
// TypeDescriptor.PrimaryKey returns key properties in declaration order
// (base type first). That order is the only composite-key order in the
// module: column flattening (ColumnInfos), key decomposition in the
// comparison expander and DDL primary-key constraints all derive from it.
package model
