package cmd

import (
	"fmt"

	"github.com/smartattendai/smart-attendance/internal/config"
	"github.com/smartattendai/smart-attendance/internal/database/postgres"
	"github.com/smartattendai/smart-attendance/internal/gallery"
	"github.com/smartattendai/smart-attendance/internal/training"
	"github.com/smartattendai/smart-attendance/internal/vision"
)

// openGalleryStore opens the configured gallery backend. The postgres
// backend connects and migrates on first use; the file backend needs no
// database at all, which keeps the train command usable offline.
func openGalleryStore(cfg *config.Config) (gallery.Store, error) {
	switch cfg.Gallery.Backend {
	case "postgres":
		pool := postgres.GetGlobalPool()
		if pool == nil {
			if err := postgres.Initialize(&cfg.Database); err != nil {
				return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
			}
			pool = postgres.GetGlobalPool()
		}
		return postgres.NewGalleryRepository(pool), nil
	case "file", "":
		return gallery.NewFileStore(cfg.Gallery.Path), nil
	default:
		return nil, fmt.Errorf("unknown gallery backend %q", cfg.Gallery.Backend)
	}
}

// newTrainer wires the training pipeline against the configured vision
// services and photo directories.
func newTrainer(cfg *config.Config, detector vision.Detector, embedder vision.Embedder, store gallery.Store) *training.Trainer {
	images := training.NewImageStore(cfg.Training.RawDir)
	return training.NewTrainer(
		detector,
		embedder,
		store,
		images,
		cfg.Training.CroppedDir,
		cfg.Training.CropMargin,
		cfg.Training.InputSize,
		cfg.Training.MinPhotos,
	)
}
