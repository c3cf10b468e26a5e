package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/peergap/internal/store"
	"github.com/wonny/peergap/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "리포트 스키마 생성",
	Long: `analysis 스키마와 리포트 테이블을 생성합니다 (이미 있으면 유지).

Example:
  go run ./cmd/peergap migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadBase()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		PrintError(err.Error())
		return err
	}

	log.WithField("duration", time.Since(start)).Info("Schema ensured")
	PrintSuccess("Schema ready")
	return nil
}
