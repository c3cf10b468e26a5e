package comparative

import (
	"fmt"
	"time"

	"github.com/wonny/peergap/internal/contracts"
)

// TieTolerance is the absolute difference under which two values share a rank
const TieTolerance = 1e-6

// MetricWeights maps a ranked metric to its weight in the overall rank
type MetricWeights map[contracts.MetricName]float64

// DefaultMetricWeights returns the built-in overall rank weights
func DefaultMetricWeights() MetricWeights {
	return MetricWeights{
		contracts.MetricPERatio:         0.15,
		contracts.MetricROE:             0.20,
		contracts.MetricRevenueGrowth:   0.15,
		contracts.MetricCombinedRatio:   0.10, // insurers only
		contracts.MetricMarketCap:       0.10,
		contracts.MetricDebtToEquity:    0.10,
		contracts.MetricGrossMargin:     0.05,
		contracts.MetricOperatingMargin: 0.05,
		contracts.MetricNetMargin:       0.10,
	}
}

// Validate checks that every weight is a known metric with a usable value
func (w MetricWeights) Validate() error {
	known := make(map[contracts.MetricName]bool, len(contracts.RankedMetrics))
	for _, name := range contracts.RankedMetrics {
		known[name] = true
	}

	total := 0.0
	for name, v := range w {
		if !known[name] {
			return &contracts.ValidationError{Field: "metric_weights", Message: fmt.Sprintf("unknown metric %q", name)}
		}
		if !contracts.IsFinite(v) || v < 0 {
			return &contracts.ValidationError{Field: "metric_weights." + string(name), Message: "must be a finite value >= 0"}
		}
		total += v
	}
	if total <= 0 {
		return &contracts.ValidationError{Field: "metric_weights", Message: "at least one weight must be > 0"}
	}
	return nil
}

// Config holds aggregator parameters
type Config struct {
	MaxParallel int           // 동시 수집 수 (기본: 6)
	TaskTimeout time.Duration // per-entity fetch+derive timeout
	Weights     MetricWeights
}

// DefaultConfig returns default aggregator configuration
func DefaultConfig() Config {
	return Config{
		MaxParallel: 6,
		TaskTimeout: 120 * time.Second,
		Weights:     DefaultMetricWeights(),
	}
}

// Validate checks the aggregator configuration
func (c Config) Validate() error {
	if c.MaxParallel < 1 {
		return &contracts.ValidationError{Field: "max_parallel", Message: "must be >= 1"}
	}
	if c.TaskTimeout <= 0 {
		return &contracts.ValidationError{Field: "task_timeout", Message: "must be > 0"}
	}
	return c.Weights.Validate()
}
