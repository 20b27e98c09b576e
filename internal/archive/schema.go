package archive

import "github.com/srijanshukla18/wiki-in-a-box/internal/storage"

// CurrentSchemaVersion tracks the archive schema version
const CurrentSchemaVersion = "1.0.0"

var migrations = []storage.Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
	},
}

const migrationV1Up = `
-- Archive entries, addressed by path
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    mimetype TEXT NOT NULL,
    content BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_mimetype ON entries(mimetype);

-- Title suggestions, kept in sync with entries
CREATE VIRTUAL TABLE IF NOT EXISTS entries_title_fts USING fts5(
    title,
    content='entries',
    content_rowid='id',
    tokenize='unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_title_fts(rowid, title) VALUES (new.id, new.title);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_title_fts(entries_title_fts, rowid, title) VALUES ('delete', old.id, old.title);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
    INSERT INTO entries_title_fts(entries_title_fts, rowid, title) VALUES ('delete', old.id, old.title);
    INSERT INTO entries_title_fts(rowid, title) VALUES (new.id, new.title);
END;

-- Native full-text search over page bodies; rowid matches entries.id
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    title, body,
    content='',
    tokenize='porter unicode61'
);
`
