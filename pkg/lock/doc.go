// Package lock implements the in-memory edit lock table.
//
// A Manager maps note IDs to a single holder. Locks are advisory, memory only
// and lost on restart. Acquisition is try-once: a conflicting request fails
// immediately instead of waiting.
package lock
