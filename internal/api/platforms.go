package api

import "github.com/starford/muninn/internal/archive"

var platformKind = Kind[archive.Platform]{Table: "platforms", Search: "name", Scan: archive.ScanPlatform}

// UpdatePlatform is the sparse PATCH payload for platforms.
type UpdatePlatform struct {
	Name *string `json:"name"`
}

func (u UpdatePlatform) Changes() ([]Assignment, []RelationSync, error) {
	var cols []Assignment
	if u.Name != nil {
		cols = append(cols, Assignment{"name", *u.Name})
	}
	return cols, nil, nil
}
