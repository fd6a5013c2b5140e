package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/muninn/internal/archive"
)

var authorKind = Kind[archive.Author]{Table: "authors", Search: "name", Scan: archive.ScanAuthor}

// authorAliases handles GET /authors/{id}/aliases. The alias list hydrates
// its platform references like any other payload.
func (s *State) authorAliases(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}

	h := s.DB.Acquire()
	defer h.Release()

	aliases, err := h.AuthorAliases(archive.AuthorID(id))
	if err != nil {
		slog.Error("author aliases failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	env, err := hydrate(h, List[archive.Alias]{Items: aliases})
	if err != nil {
		slog.Error("hydrate aliases failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// UpdateAuthor is the sparse PATCH payload for authors.
type UpdateAuthor struct {
	Name    *string                 `json:"name"`
	Thumb   Opt[archive.FileMetaID] `json:"thumb"`
	Updated *time.Time              `json:"updated"`
}

func (u UpdateAuthor) Changes() ([]Assignment, []RelationSync, error) {
	var cols []Assignment
	if u.Name != nil {
		cols = append(cols, Assignment{"name", *u.Name})
	}
	if u.Thumb.Present {
		cols = append(cols, Assignment{"thumb", u.Thumb.arg()})
	}
	if u.Updated != nil {
		cols = append(cols, Assignment{"updated", u.Updated.UTC()})
	}
	return cols, nil, nil
}
