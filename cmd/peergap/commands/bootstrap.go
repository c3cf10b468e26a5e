package commands

import (
	"fmt"

	"github.com/wonny/peergap/internal/analysis"
	"github.com/wonny/peergap/internal/analysisconfig"
	"github.com/wonny/peergap/internal/external/fmp"
	"github.com/wonny/peergap/internal/store"
	"github.com/wonny/peergap/pkg/config"
	"github.com/wonny/peergap/pkg/database"
	"github.com/wonny/peergap/pkg/logger"
	"github.com/wonny/peergap/pkg/redis"
)

// storeMode controls whether a command opens the report store
type storeMode int

const (
	storeNone      storeMode = iota
	storeIfEnabled           // PERSIST_REPORTS=true
	storeRequired
)

// app bundles everything a command needs
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	profile *analysisconfig.Config
	redis   *redis.Client
	db      *database.DB
	store   *store.ReportRepository
	service *analysis.Service
}

// loadBase loads env config and the logger
func loadBase() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// newApp wires provider, cache, profile, service and (optionally) storage
func newApp(mode storeMode) (*app, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireFMP(); err != nil {
		return nil, err
	}

	profile, err := analysisconfig.LoadRuntime(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	for _, w := range analysisconfig.Warn(profile) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	rt := &app{cfg: cfg, log: log, profile: profile}

	rt.redis, err = redis.New(cfg)
	if err != nil {
		return nil, err
	}

	var limiter *redis.RateLimiter
	if rt.redis.Enabled() {
		limiter = redis.NewRateLimiter(rt.redis)
	}
	client := fmp.NewFromConfig(cfg, limiter, log)

	var provider analysis.Provider = client
	if rt.redis.Enabled() {
		provider = fmp.NewCachedProvider(client, redis.NewCache(rt.redis), cfg.FMP.CacheTTL, log)
	}

	rt.service, err = analysis.NewService(profile, provider, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.service.WithTimeout(cfg.Analysis.ReportTimeout)

	if mode == storeRequired || (mode == storeIfEnabled && cfg.Analysis.PersistReports) {
		if err := rt.openStore(); err != nil {
			rt.Close()
			return nil, err
		}
		rt.service.WithStore(rt.store)
	}

	log.WithFields(map[string]interface{}{
		"profile":     profile.Meta.ProfileID,
		"config_hash": rt.service.ConfigHash(),
		"redis":       rt.redis.Enabled(),
		"persist":     rt.store != nil,
	}).Debug("Runtime initialized")

	return rt, nil
}

// openStore connects to PostgreSQL and creates the report repository
func (rt *app) openStore() error {
	if err := rt.cfg.RequireDatabase(); err != nil {
		return err
	}
	db, err := database.New(rt.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	rt.db = db
	rt.store = store.NewReportRepository(db)
	return nil
}

// Close releases connections
func (rt *app) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
