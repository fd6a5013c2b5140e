package api

import "github.com/starford/muninn/internal/archive"

var fileMetaKind = Kind[archive.FileMeta]{Table: "file_metas", Search: "filename", Scan: archive.ScanFileMeta}

// UpdateFileMeta is the sparse PATCH payload for file metadata.
type UpdateFileMeta struct {
	Filename *string `json:"filename"`
	Mime     *string `json:"mime"`
}

func (u UpdateFileMeta) Changes() ([]Assignment, []RelationSync, error) {
	var cols []Assignment
	if u.Filename != nil {
		cols = append(cols, Assignment{"filename", *u.Filename})
	}
	if u.Mime != nil {
		cols = append(cols, Assignment{"mime", *u.Mime})
	}
	return cols, nil, nil
}
