package prober

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// bruteCount enumerates all balance vectors consistent with the belief.
// Only usable for tiny capacities.
func bruteCount(b *Belief) int64 {
	var count int64
	var walk func(i int, sum Amount)
	walk = func(i int, sum Amount) {
		if i == len(b.capacities) {
			if sum >= b.aggLow && sum <= b.aggHigh {
				count++
			}
			return
		}
		for v := b.chanLow[i]; v <= b.chanHigh[i]; v++ {
			walk(i+1, sum+v)
		}
	}
	walk(0, 0)
	return count
}

func TestPointCountMatchesBruteForce(t *testing.T) {
	h := mustHop(t, []Amount{3, 4, 2}, []Amount{1, 2, 2})
	b := NewBelief(h)
	require.Equal(t, int64(4*5*3), b.PointCount().Int64())

	require.NoError(t, b.Update(4, OutcomeSuccess, DirectConfig(3)))
	require.Equal(t, bruteCount(b), b.PointCount().Int64())

	require.NoError(t, b.Update(7, OutcomeFail, DirectConfig(3)))
	require.Equal(t, bruteCount(b), b.PointCount().Int64())

	require.NoError(t, b.Update(2, OutcomeFail, IsolateConfig(3, 0)))
	require.Equal(t, bruteCount(b), b.PointCount().Int64())

	require.NoError(t, b.Update(2, OutcomeSuccess, IsolateConfig(3, 2)))
	require.Equal(t, bruteCount(b), b.PointCount().Int64())
}

func TestFailPointCountMatchesBruteForce(t *testing.T) {
	h := mustHop(t, []Amount{5, 3}, []Amount{2, 2})
	b := NewBelief(h)
	for amount := Amount(0); amount <= 9; amount++ {
		var want int64
		for x := Amount(0); x <= 5; x++ {
			for y := Amount(0); y <= 3; y++ {
				if x+y < amount {
					want++
				}
			}
		}
		require.Equal(t, want, b.FailPointCount(amount).Int64(), "amount %d", amount)
	}
}

func TestInitialEntropy(t *testing.T) {
	h := mustHop(t, []Amount{3, 4}, []Amount{0, 0})
	b := NewBelief(h)
	require.InDelta(t, math.Log2(20), b.Entropy(), 1e-9)
}

func TestEntropyZeroWhenExact(t *testing.T) {
	h := mustHop(t, []Amount{100}, []Amount{63})
	b := NewBelief(h)
	require.NoError(t, b.Update(63, OutcomeSuccess, DirectConfig(1)))
	require.NoError(t, b.Update(64, OutcomeFail, DirectConfig(1)))
	require.True(t, b.Exact())
	require.Equal(t, 0.0, b.Entropy())
}

// Narrowing one channel to an exact value propagates through the aggregate
// to pin the sibling channel.
func TestTightenPropagation(t *testing.T) {
	h := mustHop(t, []Amount{50, 50}, []Amount{10, 40})
	b := NewBelief(h)

	require.NoError(t, b.Update(50, OutcomeSuccess, DirectConfig(2)))
	require.NoError(t, b.Update(51, OutcomeFail, DirectConfig(2)))
	require.True(t, b.AggregateExact())

	require.NoError(t, b.Update(10, OutcomeSuccess, IsolateConfig(2, 0)))
	require.NoError(t, b.Update(11, OutcomeFail, IsolateConfig(2, 0)))

	low, high := b.ChannelInterval(1)
	require.Equal(t, Amount(40), low)
	require.Equal(t, Amount(40), high)
	require.True(t, b.Exact())
}

func TestBeliefContradiction(t *testing.T) {
	h := mustHop(t, []Amount{100}, []Amount{60})
	b := NewBelief(h)
	require.NoError(t, b.Update(60, OutcomeSuccess, DirectConfig(1)))

	err := b.Update(50, OutcomeFail, DirectConfig(1))
	require.Error(t, err)
	require.Equal(t, BeliefContradiction, ErrorCode(err))
}

func TestUpdateRejectsPartialJamConfig(t *testing.T) {
	h := mustHop(t, []Amount{10, 10, 10}, []Amount{1, 2, 3})
	b := NewBelief(h)
	jc := JamConfig{true, false, false}
	err := b.Update(5, OutcomeSuccess, jc)
	require.Equal(t, ConfigurationError, ErrorCode(err))
}

// Soundness: the true balances stay inside every tracked interval no matter
// which probes are applied in which order.
func TestSoundnessRandomProbes(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		capacities := []Amount{
			Amount(rng.Int63n(1000) + 1),
			Amount(rng.Int63n(1000) + 1),
			Amount(rng.Int63n(1000) + 1),
		}
		h, err := NewRandomHop(rng, capacities)
		require.NoError(t, err)
		b := NewBelief(h)

		for probe := 0; probe < 60; probe++ {
			var jc JamConfig
			if rng.Intn(2) == 0 {
				jc = DirectConfig(3)
			} else {
				jc = IsolateConfig(3, rng.Intn(3))
			}
			amount := Amount(rng.Int63n(int64(h.AggregateCapacity()) + 1))
			outcome, err := h.Probe(amount, jc)
			require.NoError(t, err)
			require.NoError(t, b.Update(amount, outcome, jc))

			var sum Amount
			for i, ch := range h.Channels {
				low, high := b.ChannelInterval(i)
				require.LessOrEqual(t, low, ch.balance, "seed %d probe %d", seed, probe)
				require.GreaterOrEqual(t, high, ch.balance, "seed %d probe %d", seed, probe)
				sum += ch.balance
			}
			aggLow, aggHigh := b.AggregateInterval()
			require.LessOrEqual(t, aggLow, sum)
			require.GreaterOrEqual(t, aggHigh, sum)
		}
		h.UnjamAll()
	}
}

// Interval widths never grow, and a probe inside the open interval strictly
// shrinks it.
func TestMonotonicNarrowing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h, err := NewRandomHop(rng, []Amount{1 << 20})
	require.NoError(t, err)
	b := NewBelief(h)
	jc := DirectConfig(1)

	low, high := b.AggregateInterval()
	for low < high {
		amount := low + 1 + Amount(rng.Int63n(int64(high-low)))
		outcome, err := h.Probe(amount, jc)
		require.NoError(t, err)
		require.NoError(t, b.Update(amount, outcome, jc))

		newLow, newHigh := b.AggregateInterval()
		require.Less(t, newHigh-newLow, high-low)
		low, high = newLow, newHigh
	}
}

func TestSimplexCount(t *testing.T) {
	// binomial(m+n, n)
	require.Equal(t, big.NewInt(1), simplexCount(0, 3))
	require.Equal(t, big.NewInt(6), simplexCount(2, 2))
	require.Equal(t, big.NewInt(286), simplexCount(10, 3))
}

func TestLog2Big(t *testing.T) {
	require.Equal(t, 0.0, log2Big(big.NewInt(1)))
	require.InDelta(t, 10.0, log2Big(big.NewInt(1024)), 1e-12)
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	require.InDelta(t, 200.0, log2Big(huge), 1e-9)
	require.True(t, math.IsInf(log2Big(big.NewInt(0)), -1))
}
