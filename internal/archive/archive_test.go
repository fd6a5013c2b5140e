package archive

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "muninn-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func exec(t *testing.T, db *DB, query string, args ...any) {
	t.Helper()
	h := db.Acquire()
	defer h.Release()
	if _, err := h.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	h := db.Acquire()
	defer h.Release()

	var count int
	for _, table := range []string{"posts", "authors", "tags", "platforms", "collections", "file_metas", "author_posts", "collection_posts", "post_tags", "author_aliases"} {
		if err := h.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestAcquireIsExclusive(t *testing.T) {
	db := testDB(t)

	h := db.Acquire()
	acquired := make(chan struct{})
	go func() {
		h2 := db.Acquire()
		close(acquired)
		h2.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while handle was held")
	case <-time.After(50 * time.Millisecond):
	}

	h.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire never succeeded after Release")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	db := testDB(t)
	h := db.Acquire()
	h.Release()
	h.Release() // must not panic or unlock twice

	h2 := db.Acquire()
	h2.Release()
}

func TestPlatformsByID(t *testing.T) {
	db := testDB(t)
	exec(t, db, `INSERT INTO platforms (id, name) VALUES (1, 'fanbox'), (2, 'patreon')`)

	h := db.Acquire()
	defer h.Release()

	out, err := h.PlatformsByID([]PlatformID{1, 2, 99})
	if err != nil {
		t.Fatalf("PlatformsByID: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d platforms, want 2", len(out))
	}
	if out[1].Name != "fanbox" {
		t.Errorf("platform 1 = %q", out[1].Name)
	}
	if _, ok := out[99]; ok {
		t.Error("missing id 99 should be absent from result")
	}
}

func TestPlatformsByID_EmptySet(t *testing.T) {
	db := testDB(t)
	h := db.Acquire()
	defer h.Release()

	out, err := h.PlatformsByID(nil)
	if err != nil {
		t.Fatalf("PlatformsByID: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d platforms, want 0", len(out))
	}
}

func TestFileMetasByID(t *testing.T) {
	db := testDB(t)
	exec(t, db, `INSERT INTO file_metas (id, filename, mime, size) VALUES (1, 'a.png', 'image/png', 100), (2, 'b.jpg', 'image/jpeg', 200)`)

	h := db.Acquire()
	defer h.Release()

	out, err := h.FileMetasByID([]FileMetaID{2, 7})
	if err != nil {
		t.Fatalf("FileMetasByID: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d file metas, want 1", len(out))
	}
	if out[2].Filename != "b.jpg" {
		t.Errorf("file meta 2 = %q", out[2].Filename)
	}
}

func seedPostGraph(t *testing.T, db *DB) {
	t.Helper()
	exec(t, db, `INSERT INTO platforms (id, name) VALUES (1, 'fanbox')`)
	exec(t, db, `INSERT INTO file_metas (id, filename, mime, size) VALUES (1, 'thumb.png', 'image/png', 10)`)
	exec(t, db, `INSERT INTO posts (id, title, content, thumb, platform, published, updated) VALUES
		(1, 'First', '[{"type":"text","text":"hello"},{"type":"file","file":1}]', 1, 1, '2024-01-01 00:00:00', '2024-01-02 00:00:00')`)
	exec(t, db, `INSERT INTO authors (id, name) VALUES (1, 'alice'), (2, 'bob')`)
	exec(t, db, `INSERT INTO tags (id, name, platform) VALUES (1, 'art', 1), (2, 'sketch', NULL)`)
	exec(t, db, `INSERT INTO collections (id, name) VALUES (1, 'favorites')`)
	exec(t, db, `INSERT INTO author_posts (author, post) VALUES (1, 1), (2, 1)`)
	exec(t, db, `INSERT INTO post_tags (post, tag) VALUES (1, 1), (1, 2)`)
	exec(t, db, `INSERT INTO collection_posts (collection, post) VALUES (1, 1)`)
	exec(t, db, `INSERT INTO author_aliases (source, platform, target) VALUES ('alice@fanbox', 1, 1)`)
}

func TestPostRelations(t *testing.T) {
	db := testDB(t)
	seedPostGraph(t, db)

	h := db.Acquire()
	defer h.Release()

	tags, err := h.PostTags(1)
	if err != nil {
		t.Fatalf("PostTags: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "art" {
		t.Errorf("tags = %+v", tags)
	}
	if tags[0].Platform == nil || *tags[0].Platform != 1 {
		t.Errorf("tag 1 platform = %v", tags[0].Platform)
	}
	if tags[1].Platform != nil {
		t.Errorf("tag 2 platform should be nil")
	}

	authors, err := h.PostAuthors(1)
	if err != nil {
		t.Fatalf("PostAuthors: %v", err)
	}
	if len(authors) != 2 {
		t.Errorf("authors = %+v", authors)
	}

	collections, err := h.PostCollections(1)
	if err != nil {
		t.Fatalf("PostCollections: %v", err)
	}
	if len(collections) != 1 || collections[0].Name != "favorites" {
		t.Errorf("collections = %+v", collections)
	}
}

func TestAuthorAliases(t *testing.T) {
	db := testDB(t)
	seedPostGraph(t, db)

	h := db.Acquire()
	defer h.Release()

	aliases, err := h.AuthorAliases(1)
	if err != nil {
		t.Fatalf("AuthorAliases: %v", err)
	}
	if len(aliases) != 1 || aliases[0].Source != "alice@fanbox" || aliases[0].Platform != 1 {
		t.Errorf("aliases = %+v", aliases)
	}

	aliases, err = h.AuthorAliases(2)
	if err != nil {
		t.Fatalf("AuthorAliases: %v", err)
	}
	if len(aliases) != 0 {
		t.Errorf("author 2 should have no aliases, got %+v", aliases)
	}
}

func TestDeletePostCascadesJoinTables(t *testing.T) {
	db := testDB(t)
	seedPostGraph(t, db)
	exec(t, db, `DELETE FROM posts WHERE id = 1`)

	h := db.Acquire()
	defer h.Release()

	for _, table := range []string{"post_tags", "author_posts", "collection_posts"} {
		var count int
		if err := h.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("%s has %d orphaned rows after post delete", table, count)
		}
	}
}

func TestScanPost(t *testing.T) {
	db := testDB(t)
	seedPostGraph(t, db)

	h := db.Acquire()
	defer h.Release()

	p, err := ScanPost(h.QueryRow(`SELECT * FROM posts WHERE id = 1`))
	if err != nil {
		t.Fatalf("ScanPost: %v", err)
	}
	if p.Title != "First" {
		t.Errorf("title = %q", p.Title)
	}
	if len(p.Content) != 2 || p.Content[0].Type != ContentText || p.Content[1].File != 1 {
		t.Errorf("content = %+v", p.Content)
	}
	if p.Thumb == nil || *p.Thumb != 1 {
		t.Errorf("thumb = %v", p.Thumb)
	}
	if p.Source != nil {
		t.Errorf("source should be nil, got %v", *p.Source)
	}
	if p.Published.IsZero() || p.Updated.IsZero() {
		t.Error("timestamps not decoded")
	}
}

func TestPostRefs(t *testing.T) {
	db := testDB(t)
	seedPostGraph(t, db)

	h := db.Acquire()
	defer h.Release()

	p, err := ScanPost(h.QueryRow(`SELECT * FROM posts WHERE id = 1`))
	if err != nil {
		t.Fatal(err)
	}

	platforms := p.PlatformRefs()
	if len(platforms) != 1 || platforms[0] != 1 {
		t.Errorf("platform refs = %v", platforms)
	}
	// Thumb and the embedded file both point at file meta 1.
	files := p.FileMetaRefs()
	if len(files) != 2 || files[0] != 1 || files[1] != 1 {
		t.Errorf("file refs = %v", files)
	}
}
