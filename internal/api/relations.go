package api

import (
	"github.com/starford/muninn/internal/archive"
)

// RefSource is implemented by any value that can appear as a response
// payload. It declares which secondary entities the payload references so the
// hydration step can batch-load them without knowing the payload's shape.
type RefSource interface {
	PlatformRefs() []archive.PlatformID
	FileMetaRefs() []archive.FileMetaID
}

// List wraps a page of payloads; its references are the concatenation of the
// elements' references.
type List[T RefSource] struct {
	Items []T `json:"list"`
}

func (l List[T]) PlatformRefs() []archive.PlatformID {
	var ids []archive.PlatformID
	for _, item := range l.Items {
		ids = append(ids, item.PlatformRefs()...)
	}
	return ids
}

func (l List[T]) FileMetaRefs() []archive.FileMetaID {
	var ids []archive.FileMetaID
	for _, item := range l.Items {
		ids = append(ids, item.FileMetaRefs()...)
	}
	return ids
}

// Envelope pairs a payload with the secondary entities it references, keyed
// by id. Referenced ids without a matching row are absent from the maps; the
// payload itself still carries the raw id.
type Envelope[T any] struct {
	Data      T                                        `json:"data"`
	Platforms map[archive.PlatformID]archive.Platform  `json:"platforms"`
	FileMetas map[archive.FileMetaID]archive.FileMeta  `json:"file_metas"`
}

// hydrate resolves the payload's references into an Envelope. It issues at
// most one query per secondary entity kind regardless of payload size, and
// never returns a partial bundle: any query failure aborts the whole call.
// The payload is not mutated.
func hydrate[T RefSource](h *archive.Handle, data T) (*Envelope[T], error) {
	platforms, err := h.PlatformsByID(dedupe(data.PlatformRefs()))
	if err != nil {
		return nil, err
	}
	fileMetas, err := h.FileMetasByID(dedupe(data.FileMetaRefs()))
	if err != nil {
		return nil, err
	}
	return &Envelope[T]{
		Data:      data,
		Platforms: platforms,
		FileMetas: fileMetas,
	}, nil
}

// dedupe removes duplicate ids while preserving first-seen order.
func dedupe[T comparable](ids []T) []T {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[T]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
