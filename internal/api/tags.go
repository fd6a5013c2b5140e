package api

import "github.com/starford/muninn/internal/archive"

var tagKind = Kind[archive.Tag]{Table: "tags", Search: "name", Scan: archive.ScanTag}

// UpdateTag is the sparse PATCH payload for tags.
type UpdateTag struct {
	Name     *string                 `json:"name"`
	Platform Opt[archive.PlatformID] `json:"platform"`
}

func (u UpdateTag) Changes() ([]Assignment, []RelationSync, error) {
	var cols []Assignment
	if u.Name != nil {
		cols = append(cols, Assignment{"name", *u.Name})
	}
	if u.Platform.Present {
		cols = append(cols, Assignment{"platform", u.Platform.arg()})
	}
	return cols, nil, nil
}
