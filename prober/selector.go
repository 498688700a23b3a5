package prober

import (
	"math/big"
)

// AmountSelector picks the next probe amount from the current belief state.
// Selectors are pure: the same belief and jam config always yield the same
// amount, so experiment runs are reproducible from the ground-truth seed.
type AmountSelector interface {
	SelectAmount(b *Belief, jc JamConfig) (Amount, error)
}

// activeInterval is the interval a probe under the given jam config cuts:
// the isolated channel's interval, or the aggregate interval when the whole
// hop is enabled.
func activeInterval(b *Belief, jc JamConfig) (Amount, Amount, error) {
	enabled := jc.EnabledIndices()
	switch {
	case len(enabled) == len(b.capacities):
		low, high := b.AggregateInterval()
		return low, high, nil
	case len(enabled) == 1:
		low, high := b.ChannelInterval(enabled[0])
		return low, high, nil
	default:
		return 0, 0, newError(ConfigurationError,
			"no amount strategy for %d of %d channels enabled",
			len(enabled), len(b.capacities))
	}
}

// BisectionSelector is the naive strategy (BS): cut the tracked interval in
// the numeric middle. The midpoint rounds up so that a success strictly
// raises the lower bound.
type BisectionSelector struct{}

func (BisectionSelector) SelectAmount(b *Belief, jc JamConfig) (Amount, error) {
	low, high, err := activeInterval(b, jc)
	if err != nil {
		return 0, err
	}
	return midpoint(low, high), nil
}

func midpoint(low, high Amount) Amount {
	return (low + high + 1) / 2
}

// InfoGainSelector is the optimized strategy (NBS): pick the amount whose
// success/fail split divides the remaining probability mass as evenly as
// possible. For a hop with several channels the induced distribution over
// the aggregate sum is not uniform, so the entropy-maximizing cut is found
// by binary search on the mass under the cut rather than taken at the
// numeric midpoint. With a single enabled channel the distribution is
// uniform and the cut degenerates to plain bisection.
type InfoGainSelector struct{}

func (InfoGainSelector) SelectAmount(b *Belief, jc JamConfig) (Amount, error) {
	low, high, err := activeInterval(b, jc)
	if err != nil {
		return 0, err
	}
	if len(jc.EnabledIndices()) == 1 || len(b.capacities) == 1 {
		return midpoint(low, high), nil
	}
	half := new(big.Int).Rsh(b.PointCount(), 1)
	if half.Sign() == 0 {
		half.SetInt64(1)
	}
	aLow, aHigh := low, high
	a := midpoint(aLow, aHigh)
	for {
		underCut := b.FailPointCount(a)
		if underCut.Cmp(half) < 0 {
			aLow = a
		} else {
			aHigh = a
		}
		next := midpoint(aLow, aHigh)
		if next == a {
			break
		}
		a = next
	}
	if a <= low {
		a = low + 1
	}
	return a, nil
}
