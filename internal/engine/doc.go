// Package engine executes query plans against a storage handle under a
// cardinality contract.
//
// The engine is stateless per call: it holds no connections, does no
// pooling or retrying, and takes no locks. Each Execute call
//  1. Rejects a nil plan or handle as INVALID_PLAN (plans are otherwise
//     validated when built, so a malformed query never reaches storage)
//  2. Derives the physical plan for the contract (a limit of 2 for
//     ExactlyOne and OneOrNone, 1 for First, the count form for Count)
//  3. Performs one round trip, or two for ManyWithTotalCount
//  4. Checks the row count against the contract
//
// Errors returned by the handle are wrapped in a STORAGE QueryError that
// keeps the original reachable through errors.Is and errors.As.
//
// Every execution gets a query ID (UUIDv7 by default) that is logged at
// debug level together with the plan fingerprint.
package engine
