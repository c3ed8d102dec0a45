package refindex

import (
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
)

// Registry holds the configured ignore lists, keyed by normalized raw name.
// An ignored name short-circuits resolution before any catalog lookup.
type Registry struct {
	byKind map[models.EntityKind]map[string]string
}

// NewRegistry creates an empty ignore registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[models.EntityKind]map[string]string)}
}

// Add records an ignore entry for a kind with an optional reason.
func (r *Registry) Add(kind models.EntityKind, rawName, reason string) {
	key := normalizers.Key(rawName)
	if key == "" {
		return
	}
	if r.byKind[kind] == nil {
		r.byKind[kind] = make(map[string]string)
	}
	r.byKind[kind][key] = reason
}

// Ignored reports whether a raw value is configured as ignored for a kind,
// returning the stored reason when it is.
func (r *Registry) Ignored(kind models.EntityKind, raw string) (string, bool) {
	entries, ok := r.byKind[kind]
	if !ok {
		return "", false
	}
	reason, ok := entries[normalizers.Key(raw)]
	return reason, ok
}
