package titleindex

import "github.com/srijanshukla18/wiki-in-a-box/internal/storage"

// FileName is the index file created inside the index directory
const FileName = "titles.sqlite"

var migrations = []storage.Migration{
	{
		Version: "1.0.0",
		Up:      `CREATE VIRTUAL TABLE IF NOT EXISTS titles USING fts5(title, path, tokenize = 'porter');`,
	},
}
