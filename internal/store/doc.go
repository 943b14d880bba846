// Package store provides the storage handles queries execute against.
//
// Two handles implement engine.Handle:
//   - SQLite: a database/sql store accessed through sqlx, using either the
//     cgo driver (mattn/go-sqlite3, "sqlite3") or the pure-Go driver
//     (modernc.org/sqlite, "sqlite")
//   - Memory: a synthetic in-memory store that evaluates predicates and
//     ordering in Go with the same semantics as SQLite
//
// The two are interchangeable: for the same rows and plan they return the
// same rows in the same order. Tests and the conformance harness rely on
// that to cross-check the SQL compiler against the reference evaluator.
//
// # Semantics shared by both handles
//
//   - Every entity has an integer primary key "id", assigned on insert
//     when the row does not carry one
//   - Strings are stored NFC-normalised; string literals are normalised
//     the same way before comparison
//   - An empty (NULL) value never equals anything
//   - Rows without order keys come back in id order; with order keys, ties
//     are broken by id ascending
//   - Booleans are stored as 0/1 integers
//
// EnsureTables creates missing tables from descriptors. It is not a
// migration system: existing tables are left untouched.
package store
