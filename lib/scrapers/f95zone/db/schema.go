package db

const Schema = `
CREATE TABLE IF NOT EXISTS webpage_cache (
	url TEXT NOT NULL PRIMARY KEY,
	contents TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
`
