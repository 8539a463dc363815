package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/image-gallery/internal/app"
	"github.com/anoixa/image-gallery/internal/maintenance"
	"github.com/spf13/cobra"
)

// thumbnailsCmd 缩略图维护命令
var thumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Thumbnail maintenance tools",
}

var thumbnailsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Regenerate thumbnails with the current thumbnail size",
	Long: `Regenerate thumbnails from the stored originals using the thumbnail
size from the gallery settings. Run this after changing thumbnail_size.`,
	Run: func(cmd *cobra.Command, args []string) {
		workers, _ := cmd.Flags().GetInt("workers")
		missingOnly, _ := cmd.Flags().GetBool("missing-only")

		if err := runThumbnailRebuild(maintenance.RebuildOptions{
			Workers:     workers,
			MissingOnly: missingOnly,
		}); err != nil {
			log.Fatalf("Thumbnail rebuild failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(thumbnailsCmd)
	thumbnailsCmd.AddCommand(thumbnailsRebuildCmd)
	thumbnailsRebuildCmd.Flags().Int("workers", 0, "Number of concurrent workers (default: number of CPUs)")
	thumbnailsRebuildCmd.Flags().Bool("missing-only", false, "Only generate thumbnails that do not exist yet")
}

func runThumbnailRebuild(opts maintenance.RebuildOptions) error {
	cfg := loadConfig()

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	rebuilder := maintenance.NewThumbnailRebuilder(container.ImagesRepo, container.GetStorage(), container.GetConfigManager())
	report, err := rebuilder.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Thumbnail Rebuild Statistics")
	fmt.Println("========================================")
	fmt.Printf("Images scanned:      %d\n", report.Scanned)
	fmt.Printf("Thumbnails rebuilt:  %d\n", report.Rebuilt)
	fmt.Printf("Images skipped:      %d\n", report.Skipped)
	fmt.Println("========================================")

	if len(report.Errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
		return fmt.Errorf("encountered %d errors during rebuild", len(report.Errors))
	}
	return nil
}
