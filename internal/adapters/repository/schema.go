package repository

// serverSchema holds the authoritative tables on the server. A pit row is
// overwritten only by a strictly newer last_updated; a match row is never
// overwritten by sync.
const serverSchema = `
CREATE TABLE IF NOT EXISTS pit_data (
	team_number   INTEGER PRIMARY KEY,
	data          TEXT NOT NULL,
	last_updated  INTEGER NOT NULL,
	source_device TEXT
);

CREATE TABLE IF NOT EXISTS match_data (
	id            TEXT PRIMARY KEY,
	match_number  INTEGER NOT NULL,
	team_number   INTEGER NOT NULL,
	data          TEXT NOT NULL,
	timestamp     INTEGER NOT NULL,
	source_device TEXT,
	UNIQUE(match_number, team_number, timestamp)
);

CREATE TABLE IF NOT EXISTS app_settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// localSchema holds the field client's cache, outbox and settings.
const localSchema = `
CREATE TABLE IF NOT EXISTS cache_pit (
	team_number  INTEGER PRIMARY KEY,
	data         TEXT NOT NULL,
	last_updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_match (
	id   TEXT PRIMARY KEY,
	ord  INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS cache_match_ord ON cache_match(ord);

CREATE TABLE IF NOT EXISTS outbox (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	data        TEXT NOT NULL,
	enqueued_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	upsertPitSQL = `
INSERT INTO pit_data (team_number, data, last_updated, source_device)
VALUES (?, ?, ?, ?)
ON CONFLICT(team_number) DO UPDATE SET
	data = excluded.data,
	last_updated = excluded.last_updated,
	source_device = excluded.source_device
WHERE excluded.last_updated > pit_data.last_updated`

	insertMatchSQL = `
INSERT OR IGNORE INTO match_data (id, match_number, team_number, data, timestamp, source_device)
VALUES (?, ?, ?, ?, ?, ?)`

	updatePitSQL = `
UPDATE pit_data SET data = ?, last_updated = ?, source_device = ?
WHERE team_number = ?`

	updateMatchSQL = `
UPDATE match_data SET data = ?, match_number = ?, team_number = ?, timestamp = ?, source_device = ?
WHERE id = ?`
)
