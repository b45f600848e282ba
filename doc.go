// Package octonote is the composition root of a small multi-user note editor.
//
// Notes are plain text records on disk, one file per note, headed by two lines:
//
//	Title: <title>
//	Last edited by <user> on <timestamp>
//	<content...>
//
// Editing is guarded by per-note advisory locks: a user who opens a note holds it
// until they close it, and nobody else may save or delete it meanwhile. The
// service also keeps a flat list of users and can move every note of one user
// to another in a single operation.
//
// The core (pkg/core) is storage agnostic. The default wiring uses the file
// system adapter (pkg/adapters/fs), optionally versioned with Git, and the
// in-memory lock manager (pkg/lock).
//
// Usage:
//
//	svc, err := octonote.New(ctx, "/data/octonote",
//		octonote.WithVersioning(true),
//		octonote.WithLogger(logger),
//	)
//
//	id, err := svc.CreateNote(ctx, "Groceries", "milk", "alice")
//	note, err := svc.OpenNote(ctx, id, "alice")
package octonote
