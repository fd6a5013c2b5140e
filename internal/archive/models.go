package archive

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Typed entity identifiers. Ids are assigned by the ingester, monotonically
// per table, and never reused across kinds.
type (
	PostID       int64
	AuthorID     int64
	TagID        int64
	PlatformID   int64
	CollectionID int64
	FileMetaID   int64
)

// Scanner abstracts *sql.Row and *sql.Rows for the row decoders below.
type Scanner interface {
	Scan(dest ...any) error
}

// Content is one entry of a post body: inline text or an archived file.
type Content struct {
	Type string     `json:"type"`
	Text string     `json:"text,omitempty"`
	File FileMetaID `json:"file,omitempty"`
}

// Content entry types.
const (
	ContentText = "text"
	ContentFile = "file"
)

// ContentList is a post body stored as a JSON array in a TEXT column.
type ContentList []Content

func (c *ContentList) Scan(src any) error {
	return scanJSONColumn(src, c, "content")
}

func (c ContentList) Value() (driver.Value, error) {
	return marshalJSONColumn(c)
}

// Comment is a reader comment captured by the ingester.
type Comment struct {
	User    string    `json:"user"`
	Text    string    `json:"text"`
	Replies []Comment `json:"replies,omitempty"`
}

// CommentList is stored as a JSON array in a TEXT column.
type CommentList []Comment

func (c *CommentList) Scan(src any) error {
	return scanJSONColumn(src, c, "comments")
}

func (c CommentList) Value() (driver.Value, error) {
	return marshalJSONColumn(c)
}

func scanJSONColumn(src, dest any, col string) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("archive: %s column has type %T", col, src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("archive: decode %s column: %w", col, err)
	}
	return nil
}

func marshalJSONColumn(v any) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Post is a row of the posts table.
type Post struct {
	ID        PostID      `json:"id"`
	Title     string      `json:"title"`
	Content   ContentList `json:"content"`
	Source    *string     `json:"source"`
	Thumb     *FileMetaID `json:"thumb"`
	Platform  *PlatformID `json:"platform"`
	Published time.Time   `json:"published"`
	Updated   time.Time   `json:"updated"`
	Comments  CommentList `json:"comments"`
}

// PlatformRefs returns the platform the post belongs to, if any.
func (p Post) PlatformRefs() []PlatformID {
	if p.Platform == nil {
		return nil
	}
	return []PlatformID{*p.Platform}
}

// FileMetaRefs returns the thumbnail and every file embedded in the body.
func (p Post) FileMetaRefs() []FileMetaID {
	var ids []FileMetaID
	if p.Thumb != nil {
		ids = append(ids, *p.Thumb)
	}
	for _, c := range p.Content {
		if c.Type == ContentFile {
			ids = append(ids, c.File)
		}
	}
	return ids
}

// Author is a row of the authors table.
type Author struct {
	ID      AuthorID    `json:"id"`
	Name    string      `json:"name"`
	Thumb   *FileMetaID `json:"thumb"`
	Updated time.Time   `json:"updated"`
}

func (a Author) PlatformRefs() []PlatformID { return nil }

func (a Author) FileMetaRefs() []FileMetaID {
	if a.Thumb == nil {
		return nil
	}
	return []FileMetaID{*a.Thumb}
}

// Alias is a row of the author_aliases table: a per-platform source handle
// pointing at an author.
type Alias struct {
	Source   string     `json:"source"`
	Platform PlatformID `json:"platform"`
	Target   AuthorID   `json:"target"`
}

func (a Alias) PlatformRefs() []PlatformID { return []PlatformID{a.Platform} }
func (a Alias) FileMetaRefs() []FileMetaID { return nil }

// Tag is a row of the tags table.
type Tag struct {
	ID       TagID       `json:"id"`
	Name     string      `json:"name"`
	Platform *PlatformID `json:"platform"`
}

func (t Tag) PlatformRefs() []PlatformID {
	if t.Platform == nil {
		return nil
	}
	return []PlatformID{*t.Platform}
}

func (t Tag) FileMetaRefs() []FileMetaID { return nil }

// Platform is a row of the platforms table.
type Platform struct {
	NoRefs
	ID   PlatformID `json:"id"`
	Name string     `json:"name"`
}

// Collection is a row of the collections table.
type Collection struct {
	ID     CollectionID `json:"id"`
	Name   string       `json:"name"`
	Source *string      `json:"source"`
	Thumb  *FileMetaID  `json:"thumb"`
}

func (c Collection) PlatformRefs() []PlatformID { return nil }

func (c Collection) FileMetaRefs() []FileMetaID {
	if c.Thumb == nil {
		return nil
	}
	return []FileMetaID{*c.Thumb}
}

// FileMeta is a row of the file_metas table.
type FileMeta struct {
	NoRefs
	ID       FileMetaID      `json:"id"`
	Filename string          `json:"filename"`
	Mime     string          `json:"mime"`
	Size     int64           `json:"size"`
	Post     *PostID         `json:"post"`
	Extra    json.RawMessage `json:"extra"`
}

// NoRefs is embedded by entity types that reference no secondary entities.
type NoRefs struct{}

func (NoRefs) PlatformRefs() []PlatformID { return nil }
func (NoRefs) FileMetaRefs() []FileMetaID { return nil }

// Row decoders. Column order follows the table schema (the generic engine
// selects with SELECT *).

// ScanPost decodes a posts row.
func ScanPost(row Scanner) (Post, error) {
	var (
		p        Post
		source   sql.NullString
		thumb    sql.NullInt64
		platform sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &source, &thumb, &platform, &p.Published, &p.Updated, &p.Comments); err != nil {
		return Post{}, err
	}
	if source.Valid {
		p.Source = &source.String
	}
	if thumb.Valid {
		id := FileMetaID(thumb.Int64)
		p.Thumb = &id
	}
	if platform.Valid {
		id := PlatformID(platform.Int64)
		p.Platform = &id
	}
	return p, nil
}

// ScanAuthor decodes an authors row.
func ScanAuthor(row Scanner) (Author, error) {
	var (
		a     Author
		thumb sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.Name, &thumb, &a.Updated); err != nil {
		return Author{}, err
	}
	if thumb.Valid {
		id := FileMetaID(thumb.Int64)
		a.Thumb = &id
	}
	return a, nil
}

// ScanAlias decodes an author_aliases row.
func ScanAlias(row Scanner) (Alias, error) {
	var a Alias
	if err := row.Scan(&a.Source, &a.Platform, &a.Target); err != nil {
		return Alias{}, err
	}
	return a, nil
}

// ScanTag decodes a tags row.
func ScanTag(row Scanner) (Tag, error) {
	var (
		t        Tag
		platform sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &platform); err != nil {
		return Tag{}, err
	}
	if platform.Valid {
		id := PlatformID(platform.Int64)
		t.Platform = &id
	}
	return t, nil
}

// ScanPlatform decodes a platforms row.
func ScanPlatform(row Scanner) (Platform, error) {
	var p Platform
	if err := row.Scan(&p.ID, &p.Name); err != nil {
		return Platform{}, err
	}
	return p, nil
}

// ScanCollection decodes a collections row.
func ScanCollection(row Scanner) (Collection, error) {
	var (
		c      Collection
		source sql.NullString
		thumb  sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &source, &thumb); err != nil {
		return Collection{}, err
	}
	if source.Valid {
		c.Source = &source.String
	}
	if thumb.Valid {
		id := FileMetaID(thumb.Int64)
		c.Thumb = &id
	}
	return c, nil
}

// ScanFileMeta decodes a file_metas row.
func ScanFileMeta(row Scanner) (FileMeta, error) {
	var (
		f     FileMeta
		post  sql.NullInt64
		extra sql.NullString
	)
	if err := row.Scan(&f.ID, &f.Filename, &f.Mime, &f.Size, &post, &extra); err != nil {
		return FileMeta{}, err
	}
	if post.Valid {
		id := PostID(post.Int64)
		f.Post = &id
	}
	if extra.Valid && extra.String != "" {
		f.Extra = json.RawMessage(extra.String)
	}
	return f, nil
}
