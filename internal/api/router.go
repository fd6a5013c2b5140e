package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/muninn/internal/archive"
)

// NewRouter creates a chi router with one route group per entity kind.
// eventsHandler, if non-nil, is mounted at GET /events.
func NewRouter(db *archive.DB, eventsHandler http.Handler) chi.Router {
	s := &State{DB: db}
	r := chi.NewRouter()

	// Posts use composed read handlers for richer payloads.
	r.Get("/posts", s.listPosts)
	r.Get("/posts/{id}", s.getPost)
	r.Delete("/posts/{id}", postKind.deleteHandler(s))
	r.Patch("/posts/{id}", patchHandler[UpdatePost](s, "posts"))

	authorKind.Mount(r, s)
	r.Patch("/authors/{id}", patchHandler[UpdateAuthor](s, "authors"))
	r.Get("/authors/{id}/aliases", s.authorAliases)

	tagKind.Mount(r, s)
	r.Patch("/tags/{id}", patchHandler[UpdateTag](s, "tags"))

	platformKind.Mount(r, s)
	r.Patch("/platforms/{id}", patchHandler[UpdatePlatform](s, "platforms"))

	collectionKind.Mount(r, s)
	r.Patch("/collections/{id}", patchHandler[UpdateCollection](s, "collections"))

	fileMetaKind.Mount(r, s)
	r.Patch("/file_metas/{id}", patchHandler[UpdateFileMeta](s, "file_metas"))

	if eventsHandler != nil {
		r.Get("/events", eventsHandler.ServeHTTP)
	}

	return r
}
