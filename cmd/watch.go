package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/config"
	"github.com/smartattendai/smart-attendance/internal/database/postgres"
	"github.com/smartattendai/smart-attendance/internal/schedule"
	"github.com/smartattendai/smart-attendance/internal/training"
	"github.com/smartattendai/smart-attendance/internal/vision"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a camera and record attendance for the active session",
	Long: `Watch a camera snapshot URL and record attendance continuously.
Each captured frame is scanned for faces; every face is matched against
the gallery and checked in against the currently active session.

Examples:
  # Poll an IP camera snapshot endpoint once per second
  smart-attendance watch --camera http://192.168.1.20/snapshot.jpg

  # Slower capture cadence
  smart-attendance watch --camera http://cam/still.jpg --interval 5`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("camera", "", "Camera snapshot URL (required)")
	watchCmd.Flags().Int("interval", 1, "Seconds between frames")
}

// fetchFrame grabs one JPEG frame from the camera snapshot endpoint.
func fetchFrame(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// processFrame runs one frame through detection, embedding and check-in.
func processFrame(ctx context.Context, frame []byte, detector vision.Detector,
	embedder vision.Embedder, controller *attendance.Controller, cfg *config.Config) {
	boxes, err := detector.Detect(ctx, frame)
	if err != nil {
		fmt.Printf("detection failed: %v\n", err)
		return
	}

	for _, box := range boxes {
		face, err := training.CropToInput(frame, box, cfg.Training.CropMargin, cfg.Training.InputSize)
		if err != nil {
			fmt.Printf("crop failed: %v\n", err)
			continue
		}
		embedding, err := embedder.Embed(ctx, face)
		if err != nil {
			fmt.Printf("embedding failed: %v\n", err)
			continue
		}
		outcome, err := controller.Observe(ctx, embedding)
		if err != nil {
			fmt.Printf("check-in failed: %v\n", err)
			continue
		}
		reportOutcome(outcome)
	}
}

func reportOutcome(o attendance.Outcome) {
	switch o.Kind {
	case attendance.OutcomeChecked:
		fmt.Printf("[%s] %s checked in (%s, score %.3f, session %d)\n",
			time.Now().Format("15:04:05"), o.Identity, o.Status, o.Score, o.SessionID)
	case attendance.OutcomeNotEnrolled:
		fmt.Printf("[%s] %s recognized but not enrolled in session %d\n",
			time.Now().Format("15:04:05"), o.Identity, o.SessionID)
	case attendance.OutcomeNoSession, attendance.OutcomeUnknown, attendance.OutcomeAlreadyChecked:
		// Quiet. These dominate a live feed.
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cameraURL := mustGetString(cmd, "camera")
	interval := time.Duration(mustGetInt(cmd, "interval")) * time.Second

	if cameraURL == "" {
		return errors.New("--camera is required")
	}

	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()

	sessions := postgres.NewScheduleRepository(pool, cfg.Session.Window)
	ledger := postgres.NewLedgerRepository(pool, cfg.Attendance.Source)

	store, err := openGalleryStore(cfg)
	if err != nil {
		return err
	}

	detector := vision.NewDetectorClient(cfg.Vision.DetectorURL)
	embedder := vision.NewEmbedderClient(cfg.Vision.EmbedderURL)
	poller := schedule.NewPoller(sessions, cfg.Session.PollInterval)
	controller := attendance.NewController(poller, ledger, store, cfg.Attendance.Threshold, galleryReloadTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping...")
		cancel()
	}()

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Printf("Watching %s every %s\n", cameraURL, interval)
	fmt.Println("Press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame, err := fetchFrame(ctx, client, cameraURL)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Printf("frame capture failed: %v\n", err)
				continue
			}
			processFrame(ctx, frame, detector, embedder, controller, cfg)
		}
	}
}
