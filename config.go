package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/s-tikhomirov/ln-probing-simulator/prober"
)

const (
	satoshi = 1000 // msat
	bitcoin = 100 * 1000 * 1000 * satoshi
)

// ExperimentConfig enumerates one experiment sweep. It can be loaded from a
// yaml file or assembled from command line flags.
type ExperimentConfig struct {
	// Seed drives all ground-truth generation and target sampling.
	Seed int64 `yaml:"seed"`
	// NumTargetHops is how many target hops to generate or select per round.
	NumTargetHops int `yaml:"num_target_hops"`
	// NumRuns is how many rounds to run per parameter combination.
	NumRuns int `yaml:"num_runs"`
	// MaxChannels sweeps target hops from 1 up to this many channels.
	MaxChannels int `yaml:"max_channels"`
	// MinCapacity and MaxCapacity bound synthetic channel capacities, in msat.
	MinCapacity int64 `yaml:"min_capacity"`
	MaxCapacity int64 `yaml:"max_capacity"`
	// MaxRatio sweeps two-channel capacity ratios from 1 to this value.
	MaxRatio int `yaml:"max_ratio"`
	// Jamming enables channel isolation during probing.
	Jamming bool `yaml:"jamming"`
	// JamOrder is "round-robin" or "largest-first".
	JamOrder string `yaml:"jam_order"`
	// Strategies lists the amount strategies to compare: "bs", "nbs".
	Strategies []string `yaml:"strategies"`
	// MaxProbes caps probes per session, 0 for unlimited.
	MaxProbes int `yaml:"max_probes"`
	// TargetEntropyReduction stops a session after this many bits, 0 to
	// probe to full knowledge.
	TargetEntropyReduction float64 `yaml:"target_entropy_reduction"`
	// SnapshotPath points at a c-lightning listchannels JSON dump.
	SnapshotPath string `yaml:"snapshot_path"`
}

func defaultConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Seed:          39,
		NumTargetHops: 20,
		NumRuns:       10,
		MaxChannels:   5,
		MinCapacity:   bitcoin / 100,
		MaxCapacity:   10 * bitcoin,
		MaxRatio:      10,
		JamOrder:      "round-robin",
		Strategies:    []string{"bs", "nbs"},
	}
}

func loadConfig(path string) (*ExperimentConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return cfg, nil
}

// sessionConfig maps the experiment options onto a per-session config.
func (c *ExperimentConfig) sessionConfig(strategy string) (prober.SessionConfig, error) {
	var scfg prober.SessionConfig
	s, err := prober.ParseStrategy(strategy)
	if err != nil {
		return scfg, err
	}
	order, err := prober.ParseJamOrder(c.JamOrder)
	if err != nil {
		return scfg, err
	}
	scfg = prober.SessionConfig{
		Jamming:                c.Jamming,
		Mode:                   prober.ModeDirect,
		Strategy:               s,
		MaxProbes:              c.MaxProbes,
		TargetEntropyReduction: c.TargetEntropyReduction,
		JamOrder:               order,
	}
	return scfg, nil
}
