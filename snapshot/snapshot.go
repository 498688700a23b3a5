// Package snapshot loads hops from a c-lightning listchannels snapshot.
// Balances are not public, so hops built from a snapshot get their ground
// truth assigned from an explicit random source.
package snapshot

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/s-tikhomirov/ln-probing-simulator/prober"
)

const msatPerSat = 1000

// Helper structures for parsing the snapshot JSON. Each channel appears
// once per announced direction under the same short channel id.
type rawSnapshot struct {
	Channels []rawChannel `json:"channels"`
}

type rawChannel struct {
	Source         string `json:"source"`
	Destination    string `json:"destination"`
	ShortChannelID string `json:"short_channel_id"`
	Satoshis       int64  `json:"satoshis"`
	Active         bool   `json:"active"`
}

// HopInfo describes the parallel channels announced between one node pair.
type HopInfo struct {
	Node1      string
	Node2      string
	Capacities []prober.Amount
}

// NumChannels is the number of parallel channels in the hop.
func (hi *HopInfo) NumChannels() int {
	return len(hi.Capacities)
}

// Hop builds a probe target from the announced capacities, drawing hidden
// balances from rng.
func (hi *HopInfo) Hop(rng *rand.Rand) (*prober.Hop, error) {
	return prober.NewRandomHop(rng, hi.Capacities)
}

// Snapshot is the set of hops found in one listchannels dump.
type Snapshot struct {
	hops map[string]*HopInfo
	keys []string
}

func hopKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// Load parses a listchannels JSON file. Channels inactive in every
// announced direction are dropped: they cannot forward probes anyway.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed rawSnapshot
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse snapshot %s: %w", path, err)
	}

	type channelState struct {
		node1, node2 string
		capacity     prober.Amount
		active       bool
	}
	channels := make(map[string]*channelState)
	var cids []string
	for _, rc := range parsed.Channels {
		node1, node2 := rc.Source, rc.Destination
		if node2 < node1 {
			node1, node2 = node2, node1
		}
		st, ok := channels[rc.ShortChannelID]
		if !ok {
			st = &channelState{
				node1:    node1,
				node2:    node2,
				capacity: prober.Amount(rc.Satoshis) * msatPerSat,
			}
			channels[rc.ShortChannelID] = st
			cids = append(cids, rc.ShortChannelID)
		}
		st.active = st.active || rc.Active
	}
	sort.Strings(cids)

	s := &Snapshot{hops: make(map[string]*HopInfo)}
	for _, cid := range cids {
		st := channels[cid]
		if !st.active {
			continue
		}
		key := hopKey(st.node1, st.node2)
		hi, ok := s.hops[key]
		if !ok {
			hi = &HopInfo{Node1: st.node1, Node2: st.node2}
			s.hops[key] = hi
			s.keys = append(s.keys, key)
		}
		hi.Capacities = append(hi.Capacities, st.capacity)
	}
	sort.Strings(s.keys)
	return s, nil
}

// NumHops is the number of node pairs with at least one active channel.
func (s *Snapshot) NumHops() int {
	return len(s.hops)
}

// HopsWithChannelCount lists the hops with exactly n parallel channels, in
// a stable order.
func (s *Snapshot) HopsWithChannelCount(n int) []*HopInfo {
	var out []*HopInfo
	for _, key := range s.keys {
		if hi := s.hops[key]; hi.NumChannels() == n {
			out = append(out, hi)
		}
	}
	return out
}

// SampleTargets picks up to max hops with the given channel count,
// shuffled with rng so target choice is reproducible per seed.
func (s *Snapshot) SampleTargets(rng *rand.Rand, numChannels, max int) []*HopInfo {
	candidates := s.HopsWithChannelCount(numChannels)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}
