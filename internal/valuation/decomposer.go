package valuation

import (
	"fmt"
	"math"

	"github.com/wonny/peergap/internal/contracts"
)

// Bridge component names
const (
	NamePeerAverage    = "Peer average"
	NamePeerBaseline   = "Peer baseline"
	NameFundamentalAdj = "Fundamental adjustment"
	NameFairValue      = "Fundamental fair value"
	NameNarrativePrem  = "Narrative premium"
	NameNarrativeDisc  = "Narrative discount"
	NameActualMultiple = "Actual multiple"
)

const (
	residualEpsilon     = 1e-9
	defaultIdentityTol  = 1e-6
	defaultBridgeTolAbs = 0.01
)

// Decomposer splits a multiple gap into fundamental and narrative parts
type Decomposer struct {
	IdentityTolerance float64 // relative, scaled by max(1, |actual|, |peer average|)
	BridgeTolerance   float64 // absolute, per bridge step
}

// NewDecomposer creates a decomposer with default tolerances
func NewDecomposer() *Decomposer {
	return &Decomposer{
		IdentityTolerance: defaultIdentityTol,
		BridgeTolerance:   defaultBridgeTolAbs,
	}
}

// Gap computes fundamental = expected − peer average and narrative = actual − expected
func (d *Decomposer) Gap(actual, peerAverage, expected float64) (*contracts.GapDecomposition, error) {
	inputs := []struct {
		field string
		v     float64
	}{
		{"actual", actual},
		{"peer_average", peerAverage},
		{"expected", expected},
	}
	for _, in := range inputs {
		if !contracts.IsFinite(in.v) {
			return nil, &contracts.ValidationError{Field: in.field, Message: "not a finite number"}
		}
	}

	g := &contracts.GapDecomposition{
		ActualMultiple:      actual,
		PeerAverageMultiple: peerAverage,
		ExpectedMultiple:    expected,
		FundamentalGap:      expected - peerAverage,
		NarrativeGap:        actual - expected,
		TotalGap:            actual - peerAverage,
	}

	scale := math.Max(1, math.Max(math.Abs(actual), math.Abs(peerAverage)))
	tol := d.IdentityTolerance * scale
	if sum := g.FundamentalGap + g.NarrativeGap; math.Abs(sum-g.TotalGap) > tol {
		return nil, &contracts.ToleranceViolation{
			Check:     "gap identity",
			Expected:  g.TotalGap,
			Actual:    sum,
			Tolerance: tol,
		}
	}
	return g, nil
}

// Decompose builds the bridge from the peer average to the actual multiple
//
// Attribution deltas are taken as given; any difference to the fundamental
// component is booked as a "Peer baseline" delta. Without attribution a
// single "Fundamental adjustment" delta is used.
func (d *Decomposer) Decompose(actual, peerAverage, expected float64, attribution []contracts.FactorContribution) (*contracts.ValuationBridge, error) {
	gap, err := d.Gap(actual, peerAverage, expected)
	if err != nil {
		return nil, err
	}

	b := &contracts.ValuationBridge{Start: peerAverage, End: actual}
	running := peerAverage

	add := func(c contracts.BridgeComponent) {
		running += c.Delta
		c.Cumulative = running
		b.Components = append(b.Components, c)
	}

	add(contracts.BridgeComponent{Name: NamePeerAverage, Kind: contracts.BridgeStart, Explanation: "mean multiple of peers"})

	if len(attribution) == 0 {
		add(contracts.BridgeComponent{
			Name:        NameFundamentalAdj,
			Kind:        contracts.BridgeDelta,
			Delta:       gap.FundamentalGap,
			Fundamental: true,
			Explanation: "expected multiple minus peer average",
		})
	} else {
		attributed := 0.0
		for _, c := range attribution {
			if !contracts.IsFinite(c.Contribution) {
				return nil, &contracts.ValidationError{Field: "attribution." + string(c.Factor), Message: "not a finite number"}
			}
			attributed += c.Contribution
			add(contracts.BridgeComponent{
				Name:        c.Factor.Label(),
				Kind:        contracts.BridgeDelta,
				Delta:       c.Contribution,
				Fundamental: true,
				Explanation: fmt.Sprintf("%.3f × (%.4f − peer mean %.4f)", c.Coefficient, c.TargetValue, c.PeerMean),
			})
		}
		if residual := gap.FundamentalGap - attributed; math.Abs(residual) > residualEpsilon {
			add(contracts.BridgeComponent{
				Name:        NamePeerBaseline,
				Kind:        contracts.BridgeDelta,
				Delta:       residual,
				Fundamental: true,
				Explanation: "fitted peer mean versus reported peer average",
			})
		}
	}

	b.Checkpoint = len(b.Components)
	add(contracts.BridgeComponent{Name: NameFairValue, Kind: contracts.BridgeCheckpoint, Explanation: "regression expected multiple"})

	narrative := NameNarrativePrem
	if gap.NarrativeGap < 0 {
		narrative = NameNarrativeDisc
	}
	add(contracts.BridgeComponent{
		Name:        narrative,
		Kind:        contracts.BridgeDelta,
		Delta:       gap.NarrativeGap,
		Explanation: "not explained by fundamentals",
	})

	add(contracts.BridgeComponent{Name: NameActualMultiple, Kind: contracts.BridgeEnd})

	if err := d.Validate(b, expected); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks bridge consistency
// Every cumulative equals the previous cumulative plus its delta, the
// checkpoint equals the expected multiple and the last step equals End.
func (d *Decomposer) Validate(b *contracts.ValuationBridge, expected float64) error {
	tol := d.BridgeTolerance
	if len(b.Components) == 0 {
		return &contracts.ToleranceViolation{Check: "bridge empty", Expected: b.End - b.Start, Tolerance: tol}
	}

	prev := b.Start
	for i, c := range b.Components {
		if want := prev + c.Delta; math.Abs(c.Cumulative-want) > tol {
			return &contracts.ToleranceViolation{
				Check:     fmt.Sprintf("cumulative of %q (step %d)", c.Name, i),
				Expected:  want,
				Actual:    c.Cumulative,
				Tolerance: tol,
			}
		}
		prev = c.Cumulative
	}

	if math.Abs(b.FairValue()-expected) > tol {
		return &contracts.ToleranceViolation{Check: "fair value checkpoint", Expected: expected, Actual: b.FairValue(), Tolerance: tol}
	}
	if math.Abs(prev-b.End) > tol {
		return &contracts.ToleranceViolation{Check: "bridge end", Expected: b.End, Actual: prev, Tolerance: tol}
	}
	if total := b.TotalDelta(); math.Abs(total-(b.End-b.Start)) > tol {
		return &contracts.ToleranceViolation{Check: "sum of deltas", Expected: b.End - b.Start, Actual: total, Tolerance: tol}
	}
	return nil
}
