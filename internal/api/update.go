package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/muninn/internal/apperr"
	"github.com/starford/muninn/internal/archive"
)

// Opt is a tri-state JSON field: absent (no-op), explicit null (clear), or a
// value (set). The three states stay distinguishable after decoding, which a
// plain pointer cannot express.
type Opt[T any] struct {
	Present bool
	Null    bool
	Value   T
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// arg returns the SQL parameter for a present field; explicit null clears the
// column to SQL NULL.
func (o Opt[T]) arg() any {
	if o.Null {
		return nil
	}
	return o.Value
}

// Assignment is one column change produced from a present payload field.
// Value is fully encoded up front; nothing is re-serialized mid-transaction.
type Assignment struct {
	Column string
	Value  any
}

// RelationSync replaces the full membership set of one many-to-many relation
// for the patched entity. OwnerCol is the join-table column holding the
// patched entity's id, MemberCol the other side.
type RelationSync struct {
	Table     string
	OwnerCol  string
	MemberCol string
	IDs       []int64
}

// UpdatePayload turns a decoded request body into column assignments and
// relation sync instructions. Absent fields contribute nothing.
type UpdatePayload interface {
	Changes() ([]Assignment, []RelationSync, error)
}

// applyUpdate applies a partial update in a single transaction: one UPDATE
// over exactly the present columns, then a delete-then-insert membership sync
// per relation. Everything commits or everything rolls back. An empty payload
// is rejected with apperr.ErrEmptyUpdate before any store work.
func applyUpdate(h *archive.Handle, table string, id int64, p UpdatePayload) error {
	cols, rels, err := p.Changes()
	if err != nil {
		return err
	}
	if len(cols) == 0 && len(rels) == 0 {
		return apperr.ErrEmptyUpdate
	}

	tx, err := h.Begin()
	if err != nil {
		return fmt.Errorf("update %s: begin: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if len(cols) > 0 {
		set := make([]string, len(cols))
		args := make([]any, 0, len(cols)+1)
		for i, c := range cols {
			set[i] = c.Column + " = ?"
			args = append(args, c.Value)
		}
		args = append(args, id)
		q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, table, strings.Join(set, ", "))
		if _, err := tx.Exec(q, args...); err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
	}

	for _, rel := range rels {
		if err := syncRelation(tx, id, rel); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// syncRelation makes the owner's membership rows exactly rel.IDs. Members not
// in the desired set are deleted, desired members are inserted with OR IGNORE,
// so members already present are never touched and re-applying the same set
// is a no-op.
func syncRelation(tx *sql.Tx, owner int64, rel RelationSync) error {
	if len(rel.IDs) == 0 {
		if _, err := tx.Exec(
			fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, rel.Table, rel.OwnerCol), owner); err != nil {
			return fmt.Errorf("sync %s: clear: %w", rel.Table, err)
		}
		return nil
	}

	ph := strings.TrimSuffix(strings.Repeat("?, ", len(rel.IDs)), ", ")
	args := make([]any, 0, len(rel.IDs)+1)
	args = append(args, owner)
	for _, id := range rel.IDs {
		args = append(args, id)
	}
	if _, err := tx.Exec(fmt.Sprintf(
		`DELETE FROM %s WHERE %s = ? AND %s NOT IN (%s)`,
		rel.Table, rel.OwnerCol, rel.MemberCol, ph), args...); err != nil {
		return fmt.Errorf("sync %s: prune: %w", rel.Table, err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)`,
		rel.Table, rel.OwnerCol, rel.MemberCol))
	if err != nil {
		return fmt.Errorf("sync %s: prepare insert: %w", rel.Table, err)
	}
	defer stmt.Close()
	for _, id := range rel.IDs {
		if _, err := stmt.Exec(owner, id); err != nil {
			return fmt.Errorf("sync %s: insert: %w", rel.Table, err)
		}
	}
	return nil
}

// patchHandler handles PATCH /{table}/{id} for a kind-specific payload type.
func patchHandler[P UpdatePayload](s *State, table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
			return
		}
		var payload P
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}

		h := s.DB.Acquire()
		defer h.Release()

		if err := applyUpdate(h, table, id, payload); err != nil {
			if errors.Is(err, apperr.ErrEmptyUpdate) {
				writeJSON(w, http.StatusBadRequest, errorBody("nothing to update"))
				return
			}
			slog.Error("update failed", slog.String("table", table), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
