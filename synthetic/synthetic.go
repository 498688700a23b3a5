// Package synthetic generates random target hops for probing experiments.
// All randomness comes from an explicit source so runs are reproducible.
package synthetic

import (
	"fmt"
	"math/rand"

	"github.com/s-tikhomirov/ln-probing-simulator/prober"
)

// HopParams bound the shape of generated hops.
type HopParams struct {
	MinChannels int
	MaxChannels int
	MinCapacity prober.Amount
	MaxCapacity prober.Amount
}

func (p HopParams) validate() error {
	if p.MinChannels < 1 || p.MaxChannels < p.MinChannels {
		return fmt.Errorf("bad channel count range [%d, %d]",
			p.MinChannels, p.MaxChannels)
	}
	if p.MinCapacity < 0 || p.MaxCapacity < p.MinCapacity {
		return fmt.Errorf("bad capacity range [%d, %d]",
			p.MinCapacity, p.MaxCapacity)
	}
	return nil
}

// GenerateHop builds one hop with a random channel count, random capacities
// and balances drawn uniformly in [0, capacity].
func GenerateHop(rng *rand.Rand, p HopParams) (*prober.Hop, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := p.MinChannels + rng.Intn(p.MaxChannels-p.MinChannels+1)
	capacities := make([]prober.Amount, n)
	for i := range capacities {
		span := int64(p.MaxCapacity-p.MinCapacity) + 1
		capacities[i] = p.MinCapacity + prober.Amount(rng.Int63n(span))
	}
	return prober.NewRandomHop(rng, capacities)
}

// GenerateHops builds num hops with exactly numChannels channels each.
func GenerateHops(rng *rand.Rand, num, numChannels int, minCapacity,
	maxCapacity prober.Amount) ([]*prober.Hop, error) {

	p := HopParams{
		MinChannels: numChannels,
		MaxChannels: numChannels,
		MinCapacity: minCapacity,
		MaxCapacity: maxCapacity,
	}
	hops := make([]*prober.Hop, 0, num)
	for i := 0; i < num; i++ {
		hop, err := GenerateHop(rng, p)
		if err != nil {
			return nil, err
		}
		hops = append(hops, hop)
	}
	return hops, nil
}
