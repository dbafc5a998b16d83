package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/smartattendai/smart-attendance/internal/config"
	"github.com/smartattendai/smart-attendance/internal/training"
	"github.com/smartattendai/smart-attendance/internal/vision"
)

var trainCmd = &cobra.Command{
	Use:   "train [student-code]",
	Short: "Train reference embeddings from enrollment photos",
	Long: `Train reference embeddings for students from their enrollment photos.
Each student's photos are cropped to the detected face, embedded, and
averaged into a single reference vector stored in the gallery.

Examples:
  # Train a single student
  smart-attendance train S001

  # Re-train every student with photos on disk
  smart-attendance train --all`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Bool("all", false, "Train every student found in the raw photo directory")
	trainCmd.Flags().Int("timeout", 600, "Per-student timeout in seconds")
}

func runTrain(cmd *cobra.Command, args []string) error {
	all := mustGetBool(cmd, "all")
	timeout := time.Duration(mustGetInt(cmd, "timeout")) * time.Second

	if all == (len(args) == 1) {
		return errors.New("pass exactly one student code, or --all")
	}

	cfg := config.Load()

	store, err := openGalleryStore(cfg)
	if err != nil {
		return err
	}

	detector := vision.NewDetectorClient(cfg.Vision.DetectorURL)
	embedder := vision.NewEmbedderClient(cfg.Vision.EmbedderURL)
	trainer := newTrainer(cfg, detector, embedder, store)

	if !all {
		return trainOne(trainer, args[0], timeout)
	}

	codes, err := trainer.Images().Codes()
	if err != nil {
		return fmt.Errorf("failed to list student photo directories: %w", err)
	}
	if len(codes) == 0 {
		fmt.Printf("No student photos found under %s\n", cfg.Training.RawDir)
		return nil
	}

	fmt.Printf("Students to train: %d\n\n", len(codes))

	bar := progressbar.NewOptions(len(codes),
		progressbar.OptionSetDescription("Training"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("students"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var trained, failed int
	var failures []string
	for _, code := range codes {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		result, err := trainer.Train(ctx, code)
		cancel()

		if err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", code, err))
		} else if !result.Success {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %s", code, result.Message))
		} else {
			trained++
		}
		bar.Add(1)
	}

	fmt.Printf("\n\nTrained: %d, failed: %d\n", trained, failed)
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	if failed > 0 {
		return fmt.Errorf("%d students failed to train", failed)
	}
	return nil
}

func trainOne(trainer *training.Trainer, code string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("Training %s...\n", code)
	result, err := trainer.Train(ctx, code)
	if err != nil {
		return fmt.Errorf("training %s: %w", code, err)
	}
	if !result.Success {
		return fmt.Errorf("training %s: %s", code, result.Message)
	}

	fmt.Printf("Trained %s from %d face crops\n", code, result.CroppedCount)
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	return nil
}
