// Package storage implements the Postgres persistence collaborator. The
// ingestion engine reads sources and folders from here and writes content
// through the dedup gate; transactional integrity is owned by the database.
package storage

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// psql builds queries with $1-style placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const schema = `
CREATE TABLE IF NOT EXISTS folders (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	auto_fetch BOOLEAN NOT NULL DEFAULT FALSE,
	fetch_interval_minutes INT NOT NULL DEFAULT 60,
	webhook_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sources (
	id BIGSERIAL PRIMARY KEY,
	folder_id BIGINT NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	platform TEXT NOT NULL DEFAULT 'rss',
	url TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	last_fetched TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS contents (
	id BIGSERIAL PRIMARY KEY,
	folder_id BIGINT NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	source_id BIGINT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	translation TEXT NOT NULL DEFAULT '',
	sentiment TEXT NOT NULL DEFAULT '',
	notified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (source_id, link)
);

CREATE INDEX IF NOT EXISTS idx_contents_folder ON contents(folder_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sources_folder ON sources(folder_id);
`

// Migrate creates the tables and indexes if they do not exist. The unique
// (source_id, link) constraint is what backs the dedup-on-write gate.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
