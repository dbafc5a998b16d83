// Package gallery maintains the durable mapping of student code to reference
// face embedding. The gallery is read wholesale far more often than it is
// written (only on retraining), so both backends favor cheap full reloads
// over incremental updates.
package gallery

import "context"

// Gallery maps a student code to its averaged reference embedding.
// Embeddings are immutable once written; retraining replaces the whole entry.
type Gallery map[string][]float32

// Codes returns the enrolled identity codes.
func (g Gallery) Codes() []string {
	codes := make([]string, 0, len(g))
	for code := range g {
		codes = append(codes, code)
	}
	return codes
}

// Store is the durable gallery contract. Reload on a store that has never
// been written returns an empty gallery, not an error, so a freshly
// provisioned system starts cleanly with zero identities.
type Store interface {
	// Reload reads the full gallery from durable storage.
	Reload(ctx context.Context) (Gallery, error)
	// Upsert atomically inserts or replaces one entry and persists the gallery.
	Upsert(ctx context.Context, code string, embedding []float32) error
	// Remove deletes an entry if present and reports whether it existed.
	Remove(ctx context.Context, code string) (bool, error)
}
