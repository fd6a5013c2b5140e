// Package api implements the archive REST API using chi: generic per-kind
// resource operations, relation hydration, and the partial update engine.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/archive"
)

// State carries the shared store into request handlers.
type State struct {
	DB *archive.DB
}

const defaultPageSize = 20

// Pagination selects one page of a descending-id listing. No total count is
// computed.
type Pagination struct {
	Page  int
	Limit int
}

func parsePagination(r *http.Request) Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 0 {
		page = 0
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

// idParam extracts the {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// Kind describes one entity category: its table, the column substring search
// runs against, and its row decoder. The set of kinds is closed and known at
// compile time, so table and column names are never taken from user input.
type Kind[T RefSource] struct {
	Table  string
	Search string
	Scan   func(archive.Scanner) (T, error)
}

// List returns one page of rows ordered by descending id, optionally filtered
// by a case-insensitive substring match on the kind's search column. A row
// that fails to decode aborts the whole listing.
func (k Kind[T]) List(h *archive.Handle, p Pagination, search string) ([]T, error) {
	query := fmt.Sprintf(`SELECT * FROM %s`, k.Table)
	var args []any
	if search != "" {
		query += fmt.Sprintf(` WHERE %s LIKE '%%' || ? || '%%'`, k.Search)
		args = append(args, search)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Page*p.Limit)

	rows, err := h.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", k.Table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := k.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("decode %s row: %w", k.Table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get returns the row with the given id, or apperr.ErrNotFound.
func (k Kind[T]) Get(h *archive.Handle, id int64) (T, error) {
	row := h.QueryRow(fmt.Sprintf(`SELECT * FROM %s WHERE id = ?`, k.Table), id)
	item, err := k.Scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return item, apperr.ErrNotFound
	}
	if err != nil {
		return item, fmt.Errorf("get %s: %w", k.Table, err)
	}
	return item, nil
}

// Delete removes the row with the given id. Deleting an absent id is a no-op
// success; join-table cleanup is the schema's cascade rules, not engine logic.
func (k Kind[T]) Delete(h *archive.Handle, id int64) error {
	if _, err := h.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, k.Table), id); err != nil {
		return fmt.Errorf("delete %s: %w", k.Table, err)
	}
	return nil
}

// Mount registers the standard list/get/delete routes for this kind.
// Kinds with richer reads or update payloads register those separately.
func (k Kind[T]) Mount(r chi.Router, s *State) {
	r.Get("/"+k.Table, k.listHandler(s))
	r.Get("/"+k.Table+"/{id}", k.getHandler(s))
	r.Delete("/"+k.Table+"/{id}", k.deleteHandler(s))
}

func (k Kind[T]) listHandler(s *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := parsePagination(r)
		search := r.URL.Query().Get("search")

		h := s.DB.Acquire()
		defer h.Release()

		items, err := k.List(h, p, search)
		if err != nil {
			slog.Error("list failed", slog.String("table", k.Table), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		env, err := hydrate(h, List[T]{Items: items})
		if err != nil {
			slog.Error("hydrate failed", slog.String("table", k.Table), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		writeJSON(w, http.StatusOK, env)
	}
}

func (k Kind[T]) getHandler(s *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
			return
		}

		h := s.DB.Acquire()
		defer h.Release()

		item, err := k.Get(h, id)
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		if err != nil {
			slog.Error("get failed", slog.String("table", k.Table), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		env, err := hydrate(h, item)
		if err != nil {
			slog.Error("hydrate failed", slog.String("table", k.Table), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		writeJSON(w, http.StatusOK, env)
	}
}

func (k Kind[T]) deleteHandler(s *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
			return
		}

		h := s.DB.Acquire()
		defer h.Release()

		if err := k.Delete(h, id); err != nil {
			slog.Error("delete failed", slog.String("table", k.Table), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
