package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	configSvc "github.com/anoixa/image-gallery/config/db"
	"github.com/anoixa/image-gallery/internal/app"
	"github.com/spf13/cobra"
)

// settingsCmd 查看与修改图库运行时配置
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change runtime gallery settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective gallery settings",
	Run: func(cmd *cobra.Command, args []string) {
		if err := withConfigManager(func(ctx context.Context, m *configSvc.Manager) error {
			settings, err := m.GetGallerySettings(ctx)
			if err != nil {
				return err
			}
			return printSettings(settings)
		}); err != nil {
			log.Fatalf("Show settings failed: %v", err)
		}
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update gallery settings stored in the database",
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		if err := withConfigManager(func(ctx context.Context, m *configSvc.Manager) error {
			settings, err := m.GetGallerySettings(ctx)
			if err != nil {
				return err
			}

			changed := false
			if flags.Changed("page-size") {
				settings.PageSize, _ = flags.GetInt("page-size")
				changed = true
			}
			if flags.Changed("max-page-size") {
				settings.MaxPageSize, _ = flags.GetInt("max-page-size")
				changed = true
			}
			if flags.Changed("thumbnail-size") {
				settings.ThumbnailSize, _ = flags.GetInt("thumbnail-size")
				changed = true
			}
			if flags.Changed("max-dimension") {
				settings.MaxDimension, _ = flags.GetInt("max-dimension")
				changed = true
			}
			if flags.Changed("allowed-extensions") {
				raw, _ := flags.GetString("allowed-extensions")
				settings.AllowedExtensions = configSvc.SplitExtensions(raw)
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to update, pass at least one flag")
			}

			if err := m.SaveGallerySettings(ctx, settings); err != nil {
				return err
			}
			saved, err := m.GetGallerySettings(ctx)
			if err != nil {
				return err
			}
			return printSettings(saved)
		}); err != nil {
			log.Fatalf("Update settings failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	settingsSetCmd.Flags().Int("page-size", 0, "Default number of images per gallery page")
	settingsSetCmd.Flags().Int("max-page-size", 0, "Upper bound for the page_size query parameter")
	settingsSetCmd.Flags().Int("thumbnail-size", 0, "Thumbnail edge length in pixels")
	settingsSetCmd.Flags().Int("max-dimension", 0, "Largest accepted image width or height in pixels")
	settingsSetCmd.Flags().String("allowed-extensions", "", "Comma separated upload extensions, e.g. .jpg,.png")
}

func withConfigManager(fn func(ctx context.Context, m *configSvc.Manager) error) error {
	cfg := loadConfig()
	container := app.NewContainer(cfg)
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()
	InitDatabase(container)

	if err := container.InitServices(); err != nil {
		return err
	}
	return fn(context.Background(), container.GetConfigManager())
}

func printSettings(settings configSvc.GallerySettings) error {
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
