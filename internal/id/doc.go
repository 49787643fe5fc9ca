// Package id provides unique identifier generation utilities.
//
// It is the canonical source for ID generation across the mcptap codebase:
//
//   - UUID: random UUID v4 for session identifiers
//   - ULID: time-ordered, lexicographically sortable identifiers used for
//     captured call IDs so exports list calls in creation order
//
// All generators use crypto/rand for randomness.
package id
