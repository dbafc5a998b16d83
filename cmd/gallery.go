package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/smartattendai/smart-attendance/internal/config"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect and edit the reference gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students with a trained reference embedding",
	RunE:  runGalleryList,
}

var galleryRemoveCmd = &cobra.Command{
	Use:   "remove <student-code>",
	Short: "Remove a student's reference embedding",
	Args:  cobra.ExactArgs(1),
	RunE:  runGalleryRemove,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryRemoveCmd)
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, err := openGalleryStore(cfg)
	if err != nil {
		return err
	}

	g, err := store.Reload(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	if len(g) == 0 {
		fmt.Println("Gallery is empty")
		return nil
	}

	codes := g.Codes()
	sort.Strings(codes)
	fmt.Printf("Gallery entries: %d\n", len(codes))
	for _, code := range codes {
		fmt.Printf("  %s (%d dimensions)\n", code, len(g[code]))
	}
	return nil
}

func runGalleryRemove(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	code := args[0]

	store, err := openGalleryStore(cfg)
	if err != nil {
		return err
	}

	removed, err := store.Remove(context.Background(), code)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", code, err)
	}
	if !removed {
		fmt.Printf("No gallery entry for %s\n", code)
		return nil
	}

	fmt.Printf("Removed gallery entry for %s\n", code)
	return nil
}
