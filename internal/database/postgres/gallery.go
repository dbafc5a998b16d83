package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/smartattendai/smart-attendance/internal/gallery"
)

// GalleryRepository is the PostgreSQL gallery backend. Each reference
// embedding lives in a pgvector column; reads fetch the whole mapping, which
// is cheap at gallery scale and mirrors the file backend's read-wholesale
// semantics.
type GalleryRepository struct {
	pool *Pool
}

// NewGalleryRepository creates a new gallery repository.
func NewGalleryRepository(pool *Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

// Reload reads the full gallery. An empty table is a valid empty gallery.
func (r *GalleryRepository) Reload(ctx context.Context) (gallery.Gallery, error) {
	rows, err := r.pool.Query(ctx, "SELECT student_code, embedding FROM gallery")
	if err != nil {
		return nil, fmt.Errorf("query gallery: %w", err)
	}
	defer rows.Close()

	g := gallery.Gallery{}
	for rows.Next() {
		var (
			code string
			vec  pgvector.Vector
		)
		if err := rows.Scan(&code, &vec); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		g[code] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery entries: %w", err)
	}
	return g, nil
}

// Upsert inserts or replaces one reference embedding.
func (r *GalleryRepository) Upsert(ctx context.Context, code string, embedding []float32) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO gallery (student_code, embedding, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (student_code) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at
	`, code, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert gallery entry: %w", err)
	}
	return nil
}

// Remove deletes an entry if present and reports whether it existed.
func (r *GalleryRepository) Remove(ctx context.Context, code string) (bool, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM gallery WHERE student_code = $1", code)
	if err != nil {
		return false, fmt.Errorf("delete gallery entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected > 0, nil
}
