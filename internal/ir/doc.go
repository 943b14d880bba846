// Package ir provides the value model shared by every querykit package.
//
// Query literals, stored rows and result payloads all use the sealed IRValue
// family defined here. ir imports nothing internal, so it stays the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - integers are int64, text is string
//   - IRNull is the only representation of an empty field value
//   - A Row is an IRObject keyed by field name
//   - Canonical JSON (RFC 8785) is the only encoding used for fingerprints
package ir
