package archive

// schemaSQL mirrors the schema the ingester creates. Applying it here is
// idempotent and lets the server start against an empty directory.
//
// Join tables cascade on entity delete, so a DELETE on an entity row is a
// single statement and never leaves orphaned membership rows. Reference
// columns (thumb, platform) null out when their target disappears.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS platforms (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS file_metas (
	id       INTEGER PRIMARY KEY,
	filename TEXT NOT NULL,
	mime     TEXT NOT NULL DEFAULT '',
	size     INTEGER NOT NULL DEFAULT 0,
	post     INTEGER,
	extra    TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS posts (
	id        INTEGER PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	content   TEXT NOT NULL DEFAULT '[]',
	source    TEXT,
	thumb     INTEGER REFERENCES file_metas(id) ON DELETE SET NULL,
	platform  INTEGER REFERENCES platforms(id) ON DELETE SET NULL,
	published DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	comments  TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS authors (
	id      INTEGER PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	thumb   INTEGER REFERENCES file_metas(id) ON DELETE SET NULL,
	updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS author_aliases (
	source   TEXT NOT NULL,
	platform INTEGER NOT NULL REFERENCES platforms(id) ON DELETE CASCADE,
	target   INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
	UNIQUE(source, platform)
);

CREATE TABLE IF NOT EXISTS tags (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	platform INTEGER REFERENCES platforms(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS collections (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	source TEXT,
	thumb  INTEGER REFERENCES file_metas(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS author_posts (
	author INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
	post   INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	UNIQUE(author, post)
);

CREATE TABLE IF NOT EXISTS collection_posts (
	collection INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	post       INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	UNIQUE(collection, post)
);

CREATE TABLE IF NOT EXISTS post_tags (
	post INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	tag  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	UNIQUE(post, tag)
);

CREATE INDEX IF NOT EXISTS idx_author_posts_post ON author_posts(post);
CREATE INDEX IF NOT EXISTS idx_collection_posts_post ON collection_posts(post);
CREATE INDEX IF NOT EXISTS idx_post_tags_post ON post_tags(post);
CREATE INDEX IF NOT EXISTS idx_author_aliases_target ON author_aliases(target);
`
