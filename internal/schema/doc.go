// Package schema loads entity definitions written in CUE and derives DDL
// from a model.
//
// # DEFINITION FORMAT
//
// A schema directory holds one CUE package. Entities live under the
// top-level "entity" field, keyed by type name:
//
//	entity: Person: {
//		table: "People"
//		properties: {
//			Id:      {type: "long", primaryKey: true, autoIncrement: true}
//			Name:    {type: "string", length: 64}
//			Address: {ref: "Address", nullable: true}
//		}
//		indexes: [{properties: ["Name"]}]
//	}
//
// A property has either a scalar type (see model.ParseKind) or a ref to
// another entity. Entities may extend one base entity; inherited
// properties come first. Declaration order is kept, so column order in
// the generated DDL follows the source.
//
// The definitions are unified with a closed CUE schema before decoding,
// so unknown fields and mistyped values are reported with their source
// position.
//
// # DDL
//
// BuildDDL emits one CREATE TABLE per entity and one CREATE INDEX per
// declared index. Tables are ordered so a referenced table is created
// before the tables that reference it; reference cycles are reported by
// CreationOrder and keep declaration order.
package schema
