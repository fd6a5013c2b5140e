package api

import "github.com/starford/muninn/internal/archive"

var collectionKind = Kind[archive.Collection]{Table: "collections", Search: "name", Scan: archive.ScanCollection}

// UpdateCollection is the sparse PATCH payload for collections. Posts, when
// present, is the complete desired membership of the collection.
type UpdateCollection struct {
	Name   *string                 `json:"name"`
	Source Opt[string]             `json:"source"`
	Thumb  Opt[archive.FileMetaID] `json:"thumb"`
	Posts  *[]int64                `json:"posts"`
}

func (u UpdateCollection) Changes() ([]Assignment, []RelationSync, error) {
	var cols []Assignment
	if u.Name != nil {
		cols = append(cols, Assignment{"name", *u.Name})
	}
	if u.Source.Present {
		if u.Source.Null {
			cols = append(cols, Assignment{"source", ""})
		} else {
			cols = append(cols, Assignment{"source", u.Source.Value})
		}
	}
	if u.Thumb.Present {
		cols = append(cols, Assignment{"thumb", u.Thumb.arg()})
	}

	var rels []RelationSync
	if u.Posts != nil {
		rels = append(rels, RelationSync{Table: "collection_posts", OwnerCol: "collection", MemberCol: "post", IDs: *u.Posts})
	}
	return cols, rels, nil
}
