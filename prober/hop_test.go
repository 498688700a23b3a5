package prober

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHop(t *testing.T, capacities, balances []Amount) *Hop {
	t.Helper()
	h, err := NewHop(capacities, balances)
	require.NoError(t, err)
	return h
}

// The outcome of a probe depends on the sum of balances over enabled
// channels: capacities [50, 50] with balances [10, 40] forward 50 but
// not 51.
func TestProbeOutcomeAggregate(t *testing.T) {
	h := mustHop(t, []Amount{50, 50}, []Amount{10, 40})
	jc := DirectConfig(2)

	outcome, err := h.Probe(50, jc)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)

	outcome, err = h.Probe(51, jc)
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, outcome)
}

func TestProbeZeroAmountAlwaysSucceeds(t *testing.T) {
	h := mustHop(t, []Amount{100}, []Amount{0})
	outcome, err := h.Probe(0, DirectConfig(1))
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)
}

func TestProbeInvalidAmount(t *testing.T) {
	h := mustHop(t, []Amount{50, 50}, []Amount{10, 40})
	jc := DirectConfig(2)

	_, err := h.Probe(-1, jc)
	require.Error(t, err)
	require.Equal(t, InvalidAmount, ErrorCode(err))

	// The theoretical maximum counts jammed channels too.
	_, err = h.Probe(101, IsolateConfig(2, 0))
	require.Error(t, err)
	require.Equal(t, InvalidAmount, ErrorCode(err))

	_, err = h.Probe(100, jc)
	require.NoError(t, err)
}

func TestProbeIdempotent(t *testing.T) {
	h := mustHop(t, []Amount{60, 40, 80}, []Amount{33, 12, 71})
	for _, jc := range []JamConfig{DirectConfig(3), IsolateConfig(3, 1)} {
		for amount := Amount(0); amount <= 120; amount += 7 {
			first, err := h.Probe(amount, jc)
			require.NoError(t, err)
			second, err := h.Probe(amount, jc)
			require.NoError(t, err)
			require.Equal(t, first, second)
		}
	}
}

func TestJammingExcludesChannel(t *testing.T) {
	h := mustHop(t, []Amount{50, 50}, []Amount{10, 40})

	outcome, err := h.Probe(11, IsolateConfig(2, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeFail, outcome)

	outcome, err = h.Probe(10, IsolateConfig(2, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)

	// Jamming never changes hidden balances.
	h.UnjamAll()
	outcome, err = h.Probe(50, DirectConfig(2))
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)
}

func TestNewHopValidation(t *testing.T) {
	_, err := NewHop(nil, nil)
	require.Equal(t, ConfigurationError, ErrorCode(err))

	_, err = NewHop([]Amount{10}, []Amount{11})
	require.Equal(t, ConfigurationError, ErrorCode(err))

	_, err = NewHop([]Amount{10, 20}, []Amount{5})
	require.Equal(t, ConfigurationError, ErrorCode(err))
}

func TestNewRandomHopReproducible(t *testing.T) {
	capacities := []Amount{1000, 2000, 3000}
	first, err := NewRandomHop(rand.New(rand.NewSource(42)), capacities)
	require.NoError(t, err)
	second, err := NewRandomHop(rand.New(rand.NewSource(42)), capacities)
	require.NoError(t, err)
	for i := range capacities {
		require.Equal(t, first.Channels[i].balance, second.Channels[i].balance)
		require.LessOrEqual(t, first.Channels[i].balance, capacities[i])
		require.GreaterOrEqual(t, first.Channels[i].balance, Amount(0))
	}
}
