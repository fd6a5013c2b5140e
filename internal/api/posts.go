package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/archive"
)

var postKind = Kind[archive.Post]{Table: "posts", Search: "title", Scan: archive.ScanPost}

// PostSummary is the lightweight list item for post listings.
type PostSummary struct {
	ID       archive.PostID      `json:"id"`
	Title    string              `json:"title"`
	Thumb    *archive.FileMetaID `json:"thumb"`
	Platform *archive.PlatformID `json:"platform"`
}

func (p PostSummary) PlatformRefs() []archive.PlatformID {
	if p.Platform == nil {
		return nil
	}
	return []archive.PlatformID{*p.Platform}
}

func (p PostSummary) FileMetaRefs() []archive.FileMetaID {
	if p.Thumb == nil {
		return nil
	}
	return []archive.FileMetaID{*p.Thumb}
}

// PostDetail is the composed full post: the row plus its resolved tags,
// authors, collections, and comments.
type PostDetail struct {
	ID        archive.PostID       `json:"id"`
	Title     string               `json:"title"`
	Content   archive.ContentList  `json:"content"`
	Source    *string              `json:"source"`
	Thumb     *archive.FileMetaID  `json:"thumb"`
	Platform  *archive.PlatformID  `json:"platform"`
	Published time.Time            `json:"published"`
	Updated   time.Time            `json:"updated"`
	Comments  archive.CommentList  `json:"comments"`

	Tags        []archive.Tag        `json:"tags"`
	Authors     []archive.Author     `json:"authors"`
	Collections []archive.Collection `json:"collections"`
}

func (d PostDetail) PlatformRefs() []archive.PlatformID {
	var ids []archive.PlatformID
	if d.Platform != nil {
		ids = append(ids, *d.Platform)
	}
	for _, t := range d.Tags {
		ids = append(ids, t.PlatformRefs()...)
	}
	return ids
}

func (d PostDetail) FileMetaRefs() []archive.FileMetaID {
	var ids []archive.FileMetaID
	if d.Thumb != nil {
		ids = append(ids, *d.Thumb)
	}
	for _, c := range d.Content {
		if c.Type == archive.ContentFile {
			ids = append(ids, c.File)
		}
	}
	for _, a := range d.Authors {
		ids = append(ids, a.FileMetaRefs()...)
	}
	for _, c := range d.Collections {
		ids = append(ids, c.FileMetaRefs()...)
	}
	return ids
}

// listPosts handles GET /posts with lightweight summaries.
func (s *State) listPosts(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	search := r.URL.Query().Get("search")

	h := s.DB.Acquire()
	defer h.Release()

	query := `SELECT id, title, thumb, platform FROM posts`
	var args []any
	if search != "" {
		query += ` WHERE title LIKE '%' || ? || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Page*p.Limit)

	rows, err := h.Query(query, args...)
	if err != nil {
		slog.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	defer rows.Close()

	items := []PostSummary{}
	for rows.Next() {
		var (
			item     PostSummary
			thumb    sql.NullInt64
			platform sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.Title, &thumb, &platform); err != nil {
			slog.Error("decode post summary failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		if thumb.Valid {
			id := archive.FileMetaID(thumb.Int64)
			item.Thumb = &id
		}
		if platform.Valid {
			id := archive.PlatformID(platform.Int64)
			item.Platform = &id
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	env, err := hydrate(h, List[PostSummary]{Items: items})
	if err != nil {
		slog.Error("hydrate posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// getPost handles GET /posts/{id} with the composed full response.
func (s *State) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}

	h := s.DB.Acquire()
	defer h.Release()

	post, err := postKind.Get(h, id)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err != nil {
		slog.Error("get post failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	detail, err := composePost(h, post)
	if err != nil {
		slog.Error("compose post failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	env, err := hydrate(h, detail)
	if err != nil {
		slog.Error("hydrate post failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func composePost(h *archive.Handle, post archive.Post) (PostDetail, error) {
	tags, err := h.PostTags(post.ID)
	if err != nil {
		return PostDetail{}, err
	}
	authors, err := h.PostAuthors(post.ID)
	if err != nil {
		return PostDetail{}, err
	}
	collections, err := h.PostCollections(post.ID)
	if err != nil {
		return PostDetail{}, err
	}
	return PostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		Source:      post.Source,
		Thumb:       post.Thumb,
		Platform:    post.Platform,
		Published:   post.Published,
		Updated:     post.Updated,
		Comments:    post.Comments,
		Tags:        tags,
		Authors:     authors,
		Collections: collections,
	}, nil
}

// UpdatePost is the sparse PATCH payload for posts. Relation fields carry the
// complete desired membership set.
type UpdatePost struct {
	Title     *string                 `json:"title"`
	Source    Opt[string]             `json:"source"`
	Thumb     Opt[archive.FileMetaID] `json:"thumb"`
	Platform  Opt[archive.PlatformID] `json:"platform"`
	Published *time.Time              `json:"published"`
	Updated   *time.Time              `json:"updated"`

	Tags        *[]int64 `json:"tags"`
	Authors     *[]int64 `json:"authors"`
	Collections *[]int64 `json:"collections"`
}

func (u UpdatePost) Changes() ([]Assignment, []RelationSync, error) {
	var cols []Assignment
	if u.Title != nil {
		cols = append(cols, Assignment{"title", *u.Title})
	}
	if u.Source.Present {
		// Source clears to the empty string, not SQL NULL.
		if u.Source.Null {
			cols = append(cols, Assignment{"source", ""})
		} else {
			cols = append(cols, Assignment{"source", u.Source.Value})
		}
	}
	if u.Thumb.Present {
		cols = append(cols, Assignment{"thumb", u.Thumb.arg()})
	}
	if u.Platform.Present {
		cols = append(cols, Assignment{"platform", u.Platform.arg()})
	}
	if u.Published != nil {
		cols = append(cols, Assignment{"published", u.Published.UTC()})
	}
	if u.Updated != nil {
		cols = append(cols, Assignment{"updated", u.Updated.UTC()})
	}

	var rels []RelationSync
	if u.Tags != nil {
		rels = append(rels, RelationSync{Table: "post_tags", OwnerCol: "post", MemberCol: "tag", IDs: *u.Tags})
	}
	if u.Authors != nil {
		rels = append(rels, RelationSync{Table: "author_posts", OwnerCol: "post", MemberCol: "author", IDs: *u.Authors})
	}
	if u.Collections != nil {
		rels = append(rels, RelationSync{Table: "collection_posts", OwnerCol: "post", MemberCol: "collection", IDs: *u.Collections})
	}
	return cols, rels, nil
}
