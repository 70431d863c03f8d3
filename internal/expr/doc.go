// Package expr provides the expression tree that every compilation pass
// consumes and produces.
//
// ARCHITECTURE:
//
// A query enters as a tree of generic nodes (Constant, Parameter,
// MemberAccess, Binary, Call, ...) mixed with SQL-specific nodes (Table,
// Select, Projection, Column, ...). The passes in internal/optimizer and the
// dialect amenders rewrite that tree until only SQL-specific nodes and
// scalar operators remain, and internal/sqlfmt turns it into text:
//
//	[caller tree] → [partial evaluation] → [comparison expansion]
//	              → [aggregate lifting]  → [dialect amenders] → [SQL text]
//
// SEALED INTERFACE:
//
// Node is sealed by an unexported marker method. Passes dispatch with
// exhaustive type switches over the concrete pointer types; a node kind a
// pass does not recognize falls through to RewriteChildren.
//
// IMMUTABILITY:
//
// Nodes are never mutated after construction. A rewrite that changes a
// child builds a new parent through WithChildren; a rewrite that changes
// nothing returns the identical pointer, and callers detect "no change" by
// pointer identity. Helpers named With*/Change* return modified copies.
//
// WHERE CLAUSES:
//
// A filter is a slot (Where) on Select, Update, Delete and CreateIndex, not a
// node of its own.
package expr
