package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/image-gallery/database"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/internal/app"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long: `Apply the schema to the configured database, or copy data from one
database to another with "migrate run" (e.g., SQLite to PostgreSQL).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		container := app.NewContainer(cfg)
		if err := container.InitDatabase(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer container.Close()

		InitDatabase(container)
	},
}

// migrateRunCmd 执行迁移命令
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy all gallery data between databases",
	Long: `Copy all gallery data from a source database to a target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  image-gallery migrate run --from-sqlite ./data/gallery.db --to-postgres "host=localhost user=postgres password=secret dbname=gallery port=5432"

  # Replace rows that already exist in the target
  image-gallery migrate run --from-sqlite ./data/gallery.db --to-postgres "..." --on-conflict=overwrite

  # Stop on conflict
  image-gallery migrate run --from-sqlite ./data/gallery.db --to-postgres "..." --on-conflict=error`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if fromSQLite != "" {
			fromType, fromDSN = "sqlite", fromSQLite
		}
		if toPostgres != "" {
			toType, toDSN = "postgres", toPostgres
		}

		opts := migrateOptions{
			fromType:    fromType,
			toType:      toType,
			fromDSN:     fromDSN,
			toDSN:       toDSN,
			skipConfirm: skipConfirm,
			batchSize:   batchSize,
			onConflict:  onConflict,
		}
		if err := runMigration(opts); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

type migrateOptions struct {
	fromType, toType string
	fromDSN, toDSN   string
	skipConfirm      bool
	batchSize        int
	onConflict       string
}

// migrateStats 迁移统计，表名 -> 写入行数
type migrateStats struct {
	copied map[string]int64
	order  []string
	errors []string
}

func (s *migrateStats) add(table string, n int64) {
	if _, ok := s.copied[table]; !ok {
		s.order = append(s.order, table)
	}
	s.copied[table] += n
}

// runMigration 执行数据库迁移
func runMigration(opts migrateOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	log.Printf("Migrating from %s to %s", opts.fromType, opts.toType)
	log.Printf("Source: %s", maskDSN(opts.fromDSN))
	log.Printf("Target: %s", maskDSN(opts.toDSN))
	log.Printf("Conflict strategy: %s", opts.onConflict)

	sourceDB, err := database.Open(opts.fromType, opts.fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	sqlDB, _ := sourceDB.DB()
	defer sqlDB.Close()

	targetDB, err := database.Open(opts.toType, opts.toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	sqlDB2, _ := targetDB.DB()
	defer sqlDB2.Close()

	if !opts.skipConfirm {
		fmt.Println("\nWarning: This will copy all gallery data from source to target database.")
		fmt.Printf("Conflict resolution strategy: %s\n", opts.onConflict)
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	stats, err := copyDatabase(context.Background(), sourceDB, targetDB, opts.batchSize, opts.onConflict)
	if stats != nil {
		printMigrateStats(stats)
	}
	if err != nil {
		return err
	}
	if len(stats.errors) > 0 {
		return fmt.Errorf("migration completed with %d errors", len(stats.errors))
	}

	log.Println("Migration completed successfully!")
	return nil
}

func (o migrateOptions) validate() error {
	if o.onConflict != "skip" && o.onConflict != "overwrite" && o.onConflict != "error" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", o.onConflict)
	}
	if o.fromType == "" || o.toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if o.fromDSN == "" || o.toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if o.fromType == o.toType && o.fromDSN == o.toDSN {
		return fmt.Errorf("source and target databases are the same")
	}
	return nil
}

// copyDatabase 按外键依赖顺序复制全部表
func copyDatabase(ctx context.Context, sourceDB, targetDB *gorm.DB, batchSize int, onConflict string) (*migrateStats, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	stats := &migrateStats{copied: make(map[string]int64)}

	log.Println("Migrating database schema...")
	if err := models.SetupJoinTables(targetDB); err != nil {
		return nil, fmt.Errorf("failed to setup join tables: %w", err)
	}
	if err := targetDB.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	steps := []struct {
		table string
		copy  func() (int64, error)
	}{
		{"users", func() (int64, error) { return copyTable[models.User](ctx, sourceDB, targetDB, "id", batchSize, onConflict) }},
		{"user_contents", func() (int64, error) {
			return copyTable[models.UserContent](ctx, sourceDB, targetDB, "id", batchSize, onConflict)
		}},
		{"tags", func() (int64, error) { return copyTable[models.Tag](ctx, sourceDB, targetDB, "id", batchSize, onConflict) }},
		{"image_contents", func() (int64, error) {
			return copyTable[models.ImageContent](ctx, sourceDB, targetDB, "id", batchSize, onConflict)
		}},
		{"image_tags", func() (int64, error) {
			return copyTable[models.ImageTag](ctx, sourceDB, targetDB, "image_content_id, tag_id", batchSize, onConflict)
		}},
		{"vote_counters", func() (int64, error) {
			return copyTable[models.VoteCounter](ctx, sourceDB, targetDB, "id", batchSize, onConflict)
		}},
		{"system_configs", func() (int64, error) {
			return copyTable[models.SystemConfig](ctx, sourceDB, targetDB, "id", batchSize, onConflict)
		}},
	}

	for _, step := range steps {
		log.Printf("Migrating %s...", step.table)
		n, err := step.copy()
		stats.add(step.table, n)
		if err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("%s migration failed: %v", step.table, err))
			if onConflict == "error" {
				return stats, err
			}
		}
	}

	if targetDB.Dialector.Name() == "postgres" {
		resetSequences(ctx, targetDB, stats)
	}
	return stats, nil
}

// copyTable 分页读取源表并批量写入目标表
func copyTable[T any](ctx context.Context, sourceDB, targetDB *gorm.DB, orderBy string, batchSize int, onConflict string) (int64, error) {
	var copied int64
	for offset := 0; ; offset += batchSize {
		var rows []T
		if err := sourceDB.WithContext(ctx).Order(orderBy).Limit(batchSize).Offset(offset).Find(&rows).Error; err != nil {
			return copied, err
		}
		if len(rows) == 0 {
			return copied, nil
		}

		q := targetDB.WithContext(ctx).Omit(clause.Associations)
		switch onConflict {
		case "skip":
			q = q.Clauses(clause.OnConflict{DoNothing: true})
		case "overwrite":
			q = q.Clauses(clause.OnConflict{UpdateAll: true})
		}

		result := q.Create(&rows)
		if result.Error != nil {
			return copied, result.Error
		}
		copied += result.RowsAffected
	}
}

// resetSequences 复制了显式 ID 后，把 PostgreSQL 自增序列推进到当前最大值
func resetSequences(ctx context.Context, db *gorm.DB, stats *migrateStats) {
	for _, table := range []string{"users", "user_contents", "tags", "image_contents", "vote_counters", "system_configs"} {
		sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
		if err := db.WithContext(ctx).Exec(sql).Error; err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("reset sequence for %s: %v", table, err))
		}
	}
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}

// printMigrateStats 打印迁移统计
func printMigrateStats(stats *migrateStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Migration Statistics")
	fmt.Println("========================================")
	for _, table := range stats.order {
		fmt.Printf("%-16s %d\n", table+":", stats.copied[table])
	}
	fmt.Println("========================================")

	if len(stats.errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
