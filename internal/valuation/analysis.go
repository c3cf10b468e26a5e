package valuation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
)

// Valuator runs regression and decomposition over a comparative batch
type Valuator struct {
	regressor        *Regressor
	decomposer       *Decomposer
	factorAttributed bool
	logger           *logger.Logger
}

// NewValuator creates a valuator
// factorAttributed=false collapses the fundamental part into one bridge step.
func NewValuator(r *Regressor, d *Decomposer, factorAttributed bool, log *logger.Logger) *Valuator {
	return &Valuator{
		regressor:        r,
		decomposer:       d,
		factorAttributed: factorAttributed,
		logger:           log.WithModule("valuation"),
	}
}

// Analyze decomposes the target's P/E gap to its peers
//
// Missing target or peer P/E is ErrInsufficientData. A regression that cannot
// be fitted degrades to the total gap with a note. Tolerance violations are
// returned as errors.
func (v *Valuator) Analyze(records []contracts.EntityMetricRecord) (*contracts.ValuationAnalysis, error) {
	var target *contracts.EntityMetricRecord
	var peerPE []float64
	var observations []Observation

	for i := range records {
		rec := records[i]
		if !rec.Available {
			continue
		}
		if rec.IsTarget {
			target = &records[i]
			continue
		}
		if pe := rec.Value(contracts.MetricPERatio); pe != nil {
			peerPE = append(peerPE, *pe)
		}
		observations = append(observations, ObservationOf(rec))
	}

	if target == nil {
		return nil, fmt.Errorf("target record unavailable: %w", contracts.ErrInsufficientData)
	}
	actualPtr := target.Value(contracts.MetricPERatio)
	if actualPtr == nil {
		return nil, fmt.Errorf("target %s has no P/E: %w", target.Symbol, contracts.ErrInsufficientData)
	}
	if len(peerPE) == 0 {
		return nil, fmt.Errorf("no peer P/E: %w", contracts.ErrInsufficientData)
	}

	actual := *actualPtr
	peerAvg := stat.Mean(peerPE, nil)

	out := &contracts.ValuationAnalysis{
		Multiple:            contracts.MetricPERatio,
		ActualMultiple:      actual,
		PeerAverageMultiple: peerAvg,
		TotalGap:            actual - peerAvg,
	}

	reg, err := v.regressor.FitAndPredict(observations, FundamentalsOf(*target))
	if err != nil {
		if !errors.Is(err, contracts.ErrInsufficientData) {
			return nil, err
		}
		out.Note = "total gap only: " + err.Error()
		v.logger.WithError(err).WithField("symbol", target.Symbol).Warn("Regression skipped")
		return out, nil
	}
	out.Regression = reg

	gap, err := v.decomposer.Gap(actual, peerAvg, reg.ExpectedMultiple)
	if err != nil {
		return nil, fmt.Errorf("decompose %s: %w", target.Symbol, err)
	}

	var attribution []contracts.FactorContribution
	if v.factorAttributed {
		attribution = reg.Contributions
	}
	bridge, err := v.decomposer.Decompose(actual, peerAvg, reg.ExpectedMultiple, attribution)
	if err != nil {
		return nil, fmt.Errorf("bridge %s: %w", target.Symbol, err)
	}

	out.Decomposition = gap
	out.Bridge = bridge
	if reg.Underdetermined {
		out.Note = fmt.Sprintf("underdetermined fit on %d peers, minimum-norm solution", len(reg.PeersUsed))
	}

	v.logger.WithFields(map[string]interface{}{
		"symbol":      target.Symbol,
		"actual":      actual,
		"peer_avg":    peerAvg,
		"expected":    reg.ExpectedMultiple,
		"fundamental": gap.FundamentalGap,
		"narrative":   gap.NarrativeGap,
		"peers_used":  len(reg.PeersUsed),
	}).Info("Valuation gap decomposed")

	return out, nil
}
