// Package storage holds the SQLite plumbing shared by the archive and the
// title index.
//
// The driver is chosen at build time. The default build uses the pure-Go
// modernc.org/sqlite driver; building with the sqlite_cgo tag (plus fts5)
// switches to github.com/mattn/go-sqlite3:
//
//	go build ./...
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5" ./...
//
// # Schema migrations
//
// Each database carries a schema_version table. ApplyMigrations runs every
// migration whose semantic version is newer than the recorded one, each in
// its own transaction:
//
//	db, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	if err := storage.ApplyMigrations(ctx, db, migrations); err != nil {
//	    return err
//	}
//
// Readers open files with OpenReadOnly and check SchemaVersion before
// trusting the layout.
//
// # Full-text queries
//
// User text never reaches MATCH verbatim. Terms extracts word runs, and
// MatchAny and MatchPrefix quote them so FTS5 operators in the input are
// treated as plain words.
package storage
