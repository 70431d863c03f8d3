// Package harness provides conformance testing for entity schemas and the
// SQL they compile to.
//
// A scenario names CUE schema directories and a set of dialects. The
// harness builds the schema's DDL, compiles it for every dialect, applies
// the SQLite rendition to an in-memory database, inserts setup rows
// through compiled INSERT statements, and evaluates assertions against the
// emitted SQL and the resulting rows.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - ../schemas/people
//	dialects: [sqlite, postgres]
//	setup:
//	  - insert: Address
//	    values: { City: Paris }
//	  - insert: Person
//	    values: { Name: Ada, AddressId: 1 }
//	  - insert: Person
//	    values: { Name: Bob, AddressId: 99 }
//	    fails: true
//	assertions:
//	  - type: sql_contains
//	    dialect: postgres
//	    text: SERIAL
//	  - type: final_state
//	    table: People
//	    where: { Name: Ada }
//	    expect: { AddressId: 1 }
//
// Inserts name entities; assertions over rows name tables.
//
// # Assertion Types
//
//   - sql_contains: some statement for the dialect contains text
//   - sql_not_contains: no statement for the dialect contains text
//   - statement_order: tables are created in the listed order
//   - statement_count: exactly count statements of a kind
//   - row_count: exactly count rows match where
//   - final_state: exactly one row matches where and holds expect
//
// # Deterministic Testing
//
// Compilation IDs are fixed, DDL follows schema.CreationOrder, and every
// scenario gets its own in-memory database, so the trace is byte-identical
// between runs and can be compared against golden snapshots.
package harness
