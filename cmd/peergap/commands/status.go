package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/peergap/internal/analysisconfig"
	"github.com/wonny/peergap/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정 및 연결 상태 점검",
	Long: `현재 설정과 분석 프로파일, 외부 연결 상태를 출력합니다.

표시 정보:
- 런타임 설정 (ENV)
- 분석 프로파일 ID / 해시 / 경고
- PostgreSQL 상태 (DATABASE_URL 설정 시)

Example:
  go run ./cmd/peergap status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadBase()
	if err != nil {
		return err
	}

	profile, err := analysisconfig.LoadRuntime(cfg.Analysis)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	hash, err := analysisconfig.Hash(profile)
	if err != nil {
		return err
	}

	const w = 16
	PrintHeader("peergap status", [][2]string{
		{"Env", cfg.Env},
		{"Profile", profile.Meta.ProfileID},
		{"Hash", hash},
	})

	fmt.Println("\nRuntime:")
	PrintKeyValue("Max peers", strconv.Itoa(profile.Discovery.MaxPeers), w)
	PrintKeyValue("Parallel", strconv.Itoa(profile.Collection.MaxParallel), w)
	PrintKeyValue("Task timeout", fmt.Sprintf("%ds", profile.Collection.TaskTimeoutSeconds), w)
	PrintKeyValue("Report timeout", cfg.Analysis.ReportTimeout.String(), w)
	PrintKeyValue("Persist", strconv.FormatBool(cfg.Analysis.PersistReports), w)
	PrintKeyValue("Retention", fmt.Sprintf("%d days", profile.Schedule.RetentionDays), w)
	PrintKeyValue("FMP key", strconv.FormatBool(cfg.RequireFMP() == nil), w)
	PrintKeyValue("Redis", strconv.FormatBool(cfg.Redis.Enabled), w)

	if warnings := analysisconfig.Warn(profile); len(warnings) > 0 {
		fmt.Println("\nProfile warnings:")
		for _, wr := range warnings {
			PrintWarning(fmt.Sprintf("[%s] %s", wr.Code, wr.Message))
		}
	}

	fmt.Println()
	if cfg.RequireDatabase() != nil {
		PrintKeyValue("Database", "not configured", w)
		return nil
	}

	db, err := database.New(cfg)
	if err != nil {
		PrintError(fmt.Sprintf("Database: %v", err))
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Database unhealthy: %v", err))
		return err
	}
	PrintSuccess(fmt.Sprintf("Database healthy (%s, %d conns)", health.ResponseTime, health.Stats.TotalConns))
	return nil
}
