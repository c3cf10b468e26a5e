package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/peergap/internal/api"
	"github.com/wonny/peergap/internal/api/handlers"
	"github.com/wonny/peergap/internal/contracts"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 피어 탐색 / 비교 분석 엔드포인트 제공
- 분석 진행 상황 WebSocket 스트림 제공

Endpoints:
  GET  /health                 - Health check
  GET  /api/peers/{symbol}     - 피어 탐색 (?max=N)
  POST /api/analysis           - 비교 분석 실행
  GET  /api/analysis           - 저장된 리포트 목록 (?symbol=&limit=)
  GET  /api/analysis/{id}      - 리포트 조회
  GET  /ws/analysis            - 진행 이벤트 스트림 (?symbol=)

Example:
  go run ./cmd/peergap api
  go run ./cmd/peergap api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== peergap API Server ===")

	// 1. Wire dependencies (store only when PERSIST_REPORTS=true)
	rt, err := newApp(storeIfEnabled)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, log := rt.cfg, rt.log

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"env":     cfg.Env,
		"profile": rt.profile.Meta.ProfileID,
	}).Info("Initializing API server")

	// 2. Progress stream
	hub := api.NewHub(log)
	rt.service.WithObserver(hub)

	// 3. Handlers (nil store → report endpoints return 503)
	var reports contracts.ReportStore
	if rt.store != nil {
		reports = rt.store
	}
	analysisHandler := handlers.NewAnalysisHandler(rt.service, reports, log)

	// 4. Router + server
	router := api.NewRouter(analysisHandler, hub, log)
	server := api.New(cfg, log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"GET  /api/peers/{symbol}",
		"POST /api/analysis",
		"GET  /api/analysis",
		"GET  /api/analysis/{id}",
		"GET  /ws/analysis",
	})
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
