package prober

import (
	"math"
	"math/big"
)

// Belief is what the prober currently knows about a hop: one interval per
// channel plus an interval over the aggregate forwarding capacity of the
// fully enabled hop. The ground truth always lies inside every interval;
// intervals only ever shrink. The hidden balances are never read here.
type Belief struct {
	capacities []Amount

	chanLow  []Amount
	chanHigh []Amount
	aggLow   Amount
	aggHigh  Amount
}

// NewBelief starts from full uncertainty about the given hop.
func NewBelief(h *Hop) *Belief {
	n := h.NumChannels()
	b := &Belief{
		capacities: make([]Amount, n),
		chanLow:    make([]Amount, n),
		chanHigh:   make([]Amount, n),
	}
	for i, ch := range h.Channels {
		b.capacities[i] = ch.Capacity
		b.chanHigh[i] = ch.Capacity
	}
	b.aggHigh = h.AggregateCapacity()
	return b
}

// ChannelInterval returns the known-consistent range for one balance.
func (b *Belief) ChannelInterval(i int) (Amount, Amount) {
	return b.chanLow[i], b.chanHigh[i]
}

// AggregateInterval returns the known-consistent range for the sum of
// balances over all channels.
func (b *Belief) AggregateInterval() (Amount, Amount) {
	return b.aggLow, b.aggHigh
}

func (b *Belief) ChannelExact(i int) bool {
	return b.chanLow[i] == b.chanHigh[i]
}

func (b *Belief) AggregateExact() bool {
	return b.aggLow == b.aggHigh
}

// Exact reports whether every channel balance is pinned down.
func (b *Belief) Exact() bool {
	for i := range b.capacities {
		if !b.ChannelExact(i) {
			return false
		}
	}
	return true
}

// Update narrows the belief from one probe outcome. A probe with all
// channels enabled constrains the aggregate sum; a probe with exactly one
// channel enabled constrains that channel alone. Other jam configs carry no
// per-channel information and are rejected.
func (b *Belief) Update(amount Amount, outcome Outcome, jc JamConfig) error {
	if len(jc) != len(b.capacities) {
		return newError(ConfigurationError,
			"jam config covers %d channels, belief tracks %d", len(jc), len(b.capacities))
	}
	enabled := jc.EnabledIndices()
	switch {
	case len(enabled) == len(b.capacities):
		if outcome == OutcomeSuccess {
			if amount > b.aggLow {
				b.aggLow = amount
			}
		} else {
			if amount-1 < b.aggHigh {
				b.aggHigh = amount - 1
			}
		}
	case len(enabled) == 1:
		i := enabled[0]
		if outcome == OutcomeSuccess {
			if amount > b.chanLow[i] {
				b.chanLow[i] = amount
			}
		} else {
			if amount-1 < b.chanHigh[i] {
				b.chanHigh[i] = amount - 1
			}
		}
	default:
		return newError(ConfigurationError,
			"probes with %d of %d channels enabled are not supported",
			len(enabled), len(b.capacities))
	}
	return b.tighten()
}

// tighten propagates bounds between the aggregate interval and the
// per-channel intervals until nothing changes: the aggregate cannot leave
// the sum of the channel boxes, and each channel cannot leave the aggregate
// minus the other channels' extremes.
func (b *Belief) tighten() error {
	for {
		changed := false
		var sumLow, sumHigh Amount
		for i := range b.capacities {
			sumLow += b.chanLow[i]
			sumHigh += b.chanHigh[i]
		}
		if sumLow > b.aggLow {
			b.aggLow = sumLow
			changed = true
		}
		if sumHigh < b.aggHigh {
			b.aggHigh = sumHigh
			changed = true
		}
		for i := range b.capacities {
			if low := b.aggLow - (sumHigh - b.chanHigh[i]); low > b.chanLow[i] {
				b.chanLow[i] = low
				changed = true
			}
			if high := b.aggHigh - (sumLow - b.chanLow[i]); high < b.chanHigh[i] {
				b.chanHigh[i] = high
				changed = true
			}
		}
		if err := b.checkConsistent(); err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
}

func (b *Belief) checkConsistent() error {
	if b.aggLow > b.aggHigh {
		return newError(BeliefContradiction,
			"aggregate interval inverted: [%d, %d]", b.aggLow, b.aggHigh)
	}
	for i := range b.capacities {
		if b.chanLow[i] > b.chanHigh[i] {
			return newError(BeliefContradiction,
				"channel %d interval inverted: [%d, %d]", i, b.chanLow[i], b.chanHigh[i])
		}
	}
	return nil
}

// PointCount is the number of balance vectors consistent with everything
// observed so far: integer points inside the per-channel box whose sum lies
// in the aggregate interval. Computed exactly by inclusion-exclusion over
// the box faces.
func (b *Belief) PointCount() *big.Int {
	return b.countSumRange(b.aggLow, b.aggHigh)
}

// FailPointCount is the number of consistent balance vectors a probe of the
// given amount at the fully enabled hop would rule in by failing, i.e.
// those with an aggregate sum below the amount.
func (b *Belief) FailPointCount(amount Amount) *big.Int {
	high := b.aggHigh
	if amount-1 < high {
		high = amount - 1
	}
	return b.countSumRange(b.aggLow, high)
}

func (b *Belief) countSumRange(lo, hi Amount) *big.Int {
	// Shift each channel to [0, w_i]; the sum constraint becomes [lo', hi'].
	n := len(b.capacities)
	widths := make([]Amount, n)
	var sumLow, sumWidth Amount
	for i := range b.capacities {
		widths[i] = b.chanHigh[i] - b.chanLow[i]
		sumLow += b.chanLow[i]
		sumWidth += widths[i]
	}
	lo -= sumLow
	hi -= sumLow
	if lo < 0 {
		lo = 0
	}
	if hi > sumWidth {
		hi = sumWidth
	}
	if hi < lo {
		return big.NewInt(0)
	}
	count := boxCountSumUpTo(widths, hi)
	if lo > 0 {
		count.Sub(count, boxCountSumUpTo(widths, lo-1))
	}
	return count
}

// boxCountSumUpTo counts integer points x with 0 <= x_i <= w_i and
// sum(x) <= m, by inclusion-exclusion over which coordinates overflow
// their width.
func boxCountSumUpTo(widths []Amount, m Amount) *big.Int {
	n := len(widths)
	total := big.NewInt(0)
	for mask := 0; mask < 1<<uint(n); mask++ {
		rem := m
		bits := 0
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				rem -= widths[i] + 1
				bits++
			}
		}
		if rem < 0 {
			continue
		}
		term := simplexCount(rem, n)
		if bits%2 == 1 {
			total.Sub(total, term)
		} else {
			total.Add(total, term)
		}
	}
	return total
}

// simplexCount is the number of n-vectors of non-negative integers summing
// to at most m, i.e. binomial(m+n, n).
func simplexCount(m Amount, n int) *big.Int {
	res := big.NewInt(1)
	for i := 1; i <= n; i++ {
		res.Mul(res, big.NewInt(int64(m)+int64(i)))
		res.Quo(res, big.NewInt(int64(i)))
	}
	return res
}

// Entropy is the uncertainty of the belief in bits: log2 of the number of
// consistent balance vectors under the uniform-per-channel model.
func (b *Belief) Entropy() float64 {
	return log2Big(b.PointCount())
}

func log2Big(x *big.Int) float64 {
	if x.Sign() <= 0 {
		return math.Inf(-1)
	}
	f := new(big.Float).SetInt(x)
	exp := f.MantExp(nil)
	mant, _ := new(big.Float).SetMantExp(f, -exp).Float64()
	return float64(exp) + math.Log2(mant)
}

// ReplayBelief rebuilds a belief state from a probe record sequence alone.
// Probes that never reached the target hop carry no information and are
// skipped.
func ReplayBelief(h *Hop, records []ProbeRecord) (*Belief, error) {
	b := NewBelief(h)
	for _, rec := range records {
		if !rec.Reached {
			continue
		}
		if err := b.Update(rec.Amount, rec.Outcome, rec.Jammed); err != nil {
			return nil, err
		}
	}
	return b, nil
}
