package archive

import (
	"fmt"
	"strings"
)

// placeholders returns "?, ?, ..." with n entries for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// PlatformsByID batch-loads platforms for the given id set in one query.
// Ids without a matching row are simply absent from the result.
func (h *Handle) PlatformsByID(ids []PlatformID) (map[PlatformID]Platform, error) {
	out := make(map[PlatformID]Platform, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := h.Query(
		fmt.Sprintf(`SELECT id, name FROM platforms WHERE id IN (%s)`, placeholders(len(ids))), args...)
	if err != nil {
		return nil, fmt.Errorf("archive: platforms by id: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := ScanPlatform(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// FileMetasByID batch-loads file metadata for the given id set in one query.
func (h *Handle) FileMetasByID(ids []FileMetaID) (map[FileMetaID]FileMeta, error) {
	out := make(map[FileMetaID]FileMeta, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := h.Query(
		fmt.Sprintf(`SELECT id, filename, mime, size, post, extra FROM file_metas WHERE id IN (%s)`, placeholders(len(ids))), args...)
	if err != nil {
		return nil, fmt.Errorf("archive: file metas by id: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		f, err := ScanFileMeta(rows)
		if err != nil {
			return nil, err
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

// PostTags returns the tags attached to a post via post_tags.
func (h *Handle) PostTags(id PostID) ([]Tag, error) {
	rows, err := h.Query(`
		SELECT t.id, t.name, t.platform
		FROM tags t JOIN post_tags pt ON pt.tag = t.id
		WHERE pt.post = ?
		ORDER BY t.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("archive: post tags: %w", err)
	}
	defer rows.Close()
	out := []Tag{}
	for rows.Next() {
		t, err := ScanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PostAuthors returns the authors attached to a post via author_posts.
func (h *Handle) PostAuthors(id PostID) ([]Author, error) {
	rows, err := h.Query(`
		SELECT a.id, a.name, a.thumb, a.updated
		FROM authors a JOIN author_posts ap ON ap.author = a.id
		WHERE ap.post = ?
		ORDER BY a.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("archive: post authors: %w", err)
	}
	defer rows.Close()
	out := []Author{}
	for rows.Next() {
		a, err := ScanAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PostCollections returns the collections containing a post via collection_posts.
func (h *Handle) PostCollections(id PostID) ([]Collection, error) {
	rows, err := h.Query(`
		SELECT c.id, c.name, c.source, c.thumb
		FROM collections c JOIN collection_posts cp ON cp.collection = c.id
		WHERE cp.post = ?
		ORDER BY c.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("archive: post collections: %w", err)
	}
	defer rows.Close()
	out := []Collection{}
	for rows.Next() {
		c, err := ScanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AuthorAliases returns the alias rows targeting an author.
func (h *Handle) AuthorAliases(id AuthorID) ([]Alias, error) {
	rows, err := h.Query(`
		SELECT source, platform, target FROM author_aliases
		WHERE target = ?
		ORDER BY platform, source
	`, id)
	if err != nil {
		return nil, fmt.Errorf("archive: author aliases: %w", err)
	}
	defer rows.Close()
	out := []Alias{}
	for rows.Next() {
		a, err := ScanAlias(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
