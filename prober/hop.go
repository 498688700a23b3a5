package prober

import (
	"math/rand"
)

// Amount is a liquidity amount in millisatoshi.
type Amount int64

// Outcome is the binary result of a probe payment.
type Outcome int

const (
	OutcomeFail Outcome = iota
	OutcomeSuccess
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "fail"
}

// Channel is a single payment channel inside a hop. Capacity is fixed for
// the channel's lifetime. The balance is the hidden ground truth spendable
// toward the counterparty; only the probe outcome function reads it.
type Channel struct {
	Capacity Amount
	Enabled  bool

	balance Amount
}

// Hop is an ordered set of parallel channels between the same two nodes.
type Hop struct {
	Channels []*Channel
}

// NewHop builds a hop with the given capacities and balances.
func NewHop(capacities, balances []Amount) (*Hop, error) {
	if len(capacities) == 0 {
		return nil, newError(ConfigurationError, "hop needs at least one channel")
	}
	if len(capacities) != len(balances) {
		return nil, newError(ConfigurationError,
			"got %d capacities but %d balances", len(capacities), len(balances))
	}
	channels := make([]*Channel, len(capacities))
	for i, c := range capacities {
		b := balances[i]
		if c < 0 || b < 0 || b > c {
			return nil, newError(ConfigurationError,
				"channel %d: balance %d outside [0, %d]", i, b, c)
		}
		channels[i] = &Channel{Capacity: c, Enabled: true, balance: b}
	}
	return &Hop{Channels: channels}, nil
}

// NewRandomHop builds a hop whose balances are drawn uniformly in
// [0, capacity] from the given source.
func NewRandomHop(rng *rand.Rand, capacities []Amount) (*Hop, error) {
	balances := make([]Amount, len(capacities))
	for i, c := range capacities {
		if c < 0 {
			return nil, newError(ConfigurationError, "channel %d: negative capacity %d", i, c)
		}
		balances[i] = Amount(rng.Int63n(int64(c) + 1))
	}
	return NewHop(capacities, balances)
}

func (h *Hop) NumChannels() int {
	return len(h.Channels)
}

// AggregateCapacity is the sum of all channel capacities, jammed or not.
func (h *Hop) AggregateCapacity() Amount {
	var sum Amount
	for _, c := range h.Channels {
		sum += c.Capacity
	}
	return sum
}

// ForwardingCapacity is the sum of balances over enabled channels. It is
// recomputed on every call so it never reflects a stale jam state.
func (h *Hop) ForwardingCapacity() Amount {
	var sum Amount
	for _, c := range h.Channels {
		if c.Enabled {
			sum += c.balance
		}
	}
	return sum
}

func (h *Hop) applyJamConfig(jc JamConfig) error {
	if len(jc) != len(h.Channels) {
		return newError(ConfigurationError,
			"jam config covers %d channels, hop has %d", len(jc), len(h.Channels))
	}
	for i, jammed := range jc {
		h.Channels[i].Enabled = !jammed
	}
	return nil
}

// UnjamAll re-enables every channel.
func (h *Hop) UnjamAll() {
	for _, c := range h.Channels {
		c.Enabled = true
	}
}

// Probe applies the jam config and reports whether a probe payment of the
// given amount would route past this hop. The hidden balances are only read,
// never written, so repeated identical probes yield identical outcomes.
func (h *Hop) Probe(amount Amount, jc JamConfig) (Outcome, error) {
	if amount < 0 {
		return OutcomeFail, newError(InvalidAmount, "negative probe amount %d", amount)
	}
	if max := h.AggregateCapacity(); amount > max {
		return OutcomeFail, newError(InvalidAmount,
			"probe amount %d exceeds aggregate capacity %d", amount, max)
	}
	if err := h.applyJamConfig(jc); err != nil {
		return OutcomeFail, err
	}
	if amount <= h.ForwardingCapacity() {
		return OutcomeSuccess, nil
	}
	return OutcomeFail, nil
}

// JamConfig marks which channels are disabled for the next probe.
type JamConfig []bool

// DirectConfig leaves all n channels enabled.
func DirectConfig(n int) JamConfig {
	return make(JamConfig, n)
}

// IsolateConfig jams every channel except target.
func IsolateConfig(n, target int) JamConfig {
	jc := make(JamConfig, n)
	for i := range jc {
		jc[i] = i != target
	}
	return jc
}

// EnabledIndices lists the channels left enabled by this config.
func (jc JamConfig) EnabledIndices() []int {
	var enabled []int
	for i, jammed := range jc {
		if !jammed {
			enabled = append(enabled, i)
		}
	}
	return enabled
}

// NumJams counts the channels this config disables.
func (jc JamConfig) NumJams() int {
	n := 0
	for _, jammed := range jc {
		if jammed {
			n++
		}
	}
	return n
}

func (jc JamConfig) Clone() JamConfig {
	cp := make(JamConfig, len(jc))
	copy(cp, jc)
	return cp
}
