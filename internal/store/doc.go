// Package store executes compiled SQL against SQLite.
//
// It is the boundary between the compiler, which only produces text and
// parameters, and a live database:
//   - ApplyDDL runs generated DDL once per distinct text and records it
//     in objsql_migrations
//   - Scope queues DML and sends it on Flush, Query or Complete, inside
//     a single transaction
//
// # Parameters
//
// Compiled parameters are converted before binding: UUIDs and decimals
// become their canonical strings, and unsigned integers are checked to fit
// SQLite's signed 64-bit integers.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Migrations are content-addressed: the ID is SHA-256 over a domain prefix,
// a zero byte and the DDL text.
package store
