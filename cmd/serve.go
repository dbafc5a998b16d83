package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/config"
	"github.com/smartattendai/smart-attendance/internal/database/postgres"
	"github.com/smartattendai/smart-attendance/internal/schedule"
	"github.com/smartattendai/smart-attendance/internal/vision"
	"github.com/smartattendai/smart-attendance/internal/web"
)

// galleryReloadTTL bounds how stale the controller's in-memory gallery may
// get before it is re-read from the store.
const galleryReloadTTL = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Smart Attendance web server.
The server exposes the enrollment, training, recognition, session and
analytics API used by the kiosk and admin frontends.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()

	students := postgres.NewStudentRepository(pool)
	sessions := postgres.NewScheduleRepository(pool, cfg.Session.Window)
	ledger := postgres.NewLedgerRepository(pool, cfg.Attendance.Source)
	analytics := postgres.NewAnalyticsRepository(pool)

	store, err := openGalleryStore(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Using %s gallery backend\n", cfg.Gallery.Backend)

	detector := vision.NewDetectorClient(cfg.Vision.DetectorURL)
	embedder := vision.NewEmbedderClient(cfg.Vision.EmbedderURL)
	trainer := newTrainer(cfg, detector, embedder, store)

	poller := schedule.NewPoller(sessions, cfg.Session.PollInterval)
	controller := attendance.NewController(poller, ledger, store, cfg.Attendance.Threshold, galleryReloadTTL)

	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, web.Deps{
		Students:   students,
		Sessions:   sessions,
		Records:    ledger,
		Analytics:  analytics,
		Ledger:     ledger,
		Gallery:    store,
		Trainer:    trainer,
		Detector:   detector,
		Embedder:   embedder,
		Controller: controller,
		Source:     poller,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Smart Attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
