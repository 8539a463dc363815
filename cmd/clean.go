package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/image-gallery/internal/app"
	"github.com/anoixa/image-gallery/internal/maintenance"
	"github.com/spf13/cobra"
)

// cleanCmd 清理数据库孤儿记录和存储孤儿文件
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean orphan database records and storage files",
	Long: `Clean orphan database records and storage files.
This includes:
  - Delete image records whose original file is missing
  - Delete stored originals and thumbnails without a corresponding record`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dbOnly, _ := cmd.Flags().GetBool("db-only")
		storageOnly, _ := cmd.Flags().GetBool("storage-only")

		if dbOnly && storageOnly {
			log.Fatal("--db-only and --storage-only are mutually exclusive")
		}

		if err := runClean(maintenance.Options{
			DryRun:      dryRun,
			RecordsOnly: dbOnly,
			FilesOnly:   storageOnly,
		}); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Bool("db-only", false, "Only clean orphan database records")
	cleanCmd.Flags().Bool("storage-only", false, "Only clean orphan storage files")
}

// runClean 执行清理
func runClean(opts maintenance.Options) error {
	cfg := loadConfig()

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	cleaner := maintenance.NewCleaner(
		container.ImagesRepo,
		container.ContentsRepo,
		container.GetStorage(),
		container.GetCacheHelper(),
	)

	report, err := cleaner.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	printCleanStats(report, opts.DryRun)

	if len(report.Errors) > 0 {
		return fmt.Errorf("encountered %d errors during cleanup", len(report.Errors))
	}
	return nil
}

// printCleanStats 打印清理统计
func printCleanStats(report *maintenance.Report, dryRun bool) {
	if dryRun {
		for _, id := range report.OrphanRecords {
			fmt.Printf("[DRY-RUN] Would delete orphan DB record: %s\n", id)
		}
		for _, p := range report.OrphanFiles {
			fmt.Printf("[DRY-RUN] Would delete orphan file: %s\n", p)
		}
	}

	fmt.Println()
	fmt.Println("========================================")
	if dryRun {
		fmt.Println("           [DRY RUN MODE]")
	}
	fmt.Println("         Clean Statistics")
	fmt.Println("========================================")
	fmt.Printf("Orphan DB records found:    %d\n", len(report.OrphanRecords))
	fmt.Printf("Orphan storage files found: %d\n", len(report.OrphanFiles))
	fmt.Printf("DB records deleted:         %d\n", report.DeletedRecords)
	fmt.Printf("Storage files deleted:      %d\n", report.DeletedFiles)
	fmt.Println("========================================")

	if len(report.Errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range report.Errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
