package prober

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProbingMode says where the prober sits relative to the target hop.
type ProbingMode int

const (
	// ModeDirect probes a hop the prober is an endpoint of.
	ModeDirect ProbingMode = iota
	// ModeRemote probes a hop behind a fixed list of intermediary hops.
	// Every intermediary must forward the probe for it to reach the target.
	ModeRemote
)

// AmountStrategy selects one of the two amount choice methods.
type AmountStrategy int

const (
	// StrategyBisection is the naive method (BS).
	StrategyBisection AmountStrategy = iota
	// StrategyInfoGain is the optimized method (NBS).
	StrategyInfoGain
)

// ParseStrategy maps a config string onto an amount strategy.
func ParseStrategy(s string) (AmountStrategy, error) {
	switch s {
	case "bs":
		return StrategyBisection, nil
	case "nbs":
		return StrategyInfoGain, nil
	}
	return 0, newError(ConfigurationError, "unknown amount strategy %q", s)
}

// ParseJamOrder maps a config string onto a channel isolation order.
func ParseJamOrder(s string) (JamOrder, error) {
	switch s {
	case "round-robin", "":
		return OrderRoundRobin, nil
	case "largest-first":
		return OrderLargestFirst, nil
	}
	return 0, newError(ConfigurationError, "unknown jam order %q", s)
}

// SessionConfig enumerates the per-session experiment options.
type SessionConfig struct {
	// Jamming enables channel isolation via an IsolationPlanner.
	Jamming bool
	// Mode is direct or remote probing.
	Mode ProbingMode
	// Strategy is the amount choice method.
	Strategy AmountStrategy
	// MaxProbes caps the probe budget, jams included. Zero means unlimited.
	MaxProbes int
	// TargetEntropyReduction stops the session once this many bits have
	// been gained. Zero disables the condition.
	TargetEntropyReduction float64
	// JamOrder is the channel isolation order when jamming.
	JamOrder JamOrder
}

// ProbeRecord is one entry of the append-only probe log.
type ProbeRecord struct {
	Amount  Amount
	Outcome Outcome
	// Reached is false when the probe died at an intermediary hop, in
	// which case the outcome says nothing about the target.
	Reached bool
	// Jammed is the jam config in force when the probe was sent.
	Jammed JamConfig
}

// Result is what a finished session reports to the experiment harness.
type Result struct {
	ID uuid.UUID
	// TotalProbes counts probe payments plus jam placements.
	TotalProbes int
	// JammingProbes is the share of TotalProbes spent on jam placements.
	JammingProbes      int
	InitialEntropyBits float64
	FinalEntropyBits   float64
	GainBits           float64
	// EntropyTrajectory has one entry per probe payment.
	EntropyTrajectory []float64
	ProbeLog          []ProbeRecord
}

type sessionState int

const (
	stateRunning sessionState = iota
	stateDone
)

// Session drives repeated probe/update cycles against one target hop.
// Sessions are single-use and strictly sequential: every probe narrows the
// belief the next amount is selected from.
type Session struct {
	id       uuid.UUID
	hop      *Hop
	via      []*Hop
	cfg      SessionConfig
	belief   *Belief
	selector AmountSelector
	planner  JamPlanner

	state      sessionState
	probes     int
	jamProbes  int
	records    []ProbeRecord
	trajectory []float64

	// blocked is the smallest amount known to die at an intermediary, or
	// -1. Probing at or above it cannot reach the target.
	blocked Amount
}

// NewSession validates the config and binds it to a target hop. via lists
// the intermediary hops for remote probing and must be empty in direct mode.
func NewSession(hop *Hop, via []*Hop, cfg SessionConfig) (*Session, error) {
	if hop == nil || hop.NumChannels() == 0 {
		return nil, newError(ConfigurationError, "session needs a target hop")
	}
	if cfg.MaxProbes < 0 {
		return nil, newError(ConfigurationError, "negative probe budget %d", cfg.MaxProbes)
	}
	if cfg.TargetEntropyReduction < 0 {
		return nil, newError(ConfigurationError,
			"entropy reduction target %f must be positive", cfg.TargetEntropyReduction)
	}
	switch cfg.Mode {
	case ModeDirect:
		if len(via) > 0 {
			return nil, newError(ConfigurationError,
				"direct probing cannot take %d intermediary hops", len(via))
		}
	case ModeRemote:
		if len(via) == 0 {
			return nil, newError(ConfigurationError, "remote probing needs intermediary hops")
		}
	default:
		return nil, newError(ConfigurationError, "unknown probing mode %d", cfg.Mode)
	}
	var selector AmountSelector
	switch cfg.Strategy {
	case StrategyBisection:
		selector = BisectionSelector{}
	case StrategyInfoGain:
		selector = InfoGainSelector{}
	default:
		return nil, newError(ConfigurationError, "unknown amount strategy %d", cfg.Strategy)
	}
	var planner JamPlanner = NoJamming{}
	if cfg.Jamming {
		if cfg.JamOrder != OrderRoundRobin && cfg.JamOrder != OrderLargestFirst {
			return nil, newError(ConfigurationError, "unknown jam order %d", cfg.JamOrder)
		}
		planner = IsolationPlanner{Order: cfg.JamOrder}
	}
	return &Session{
		id:       uuid.New(),
		hop:      hop,
		via:      via,
		cfg:      cfg,
		belief:   NewBelief(hop),
		selector: selector,
		planner:  planner,
		blocked:  -1,
	}, nil
}

// Belief exposes the session's current knowledge, mainly for inspection
// after Run.
func (s *Session) Belief() *Belief {
	return s.belief
}

// Run probes until a stopping condition holds: exact knowledge of all
// tracked quantities, the probe budget, or the entropy reduction target. A
// probe rejection or a belief contradiction aborts the session and is
// returned as-is; neither can occur unless the model is defective.
func (s *Session) Run() (*Result, error) {
	if s.state != stateRunning {
		return nil, newError(ConfigurationError, "session already finished")
	}
	initial := s.belief.Entropy()
	err := s.runLoop(initial)
	s.hop.UnjamAll()
	s.state = stateDone
	if err != nil {
		return nil, err
	}
	final := s.belief.Entropy()
	return &Result{
		ID:                 s.id,
		TotalProbes:        s.probes,
		JammingProbes:      s.jamProbes,
		InitialEntropyBits: initial,
		FinalEntropyBits:   final,
		GainBits:           initial - final,
		EntropyTrajectory:  s.trajectory,
		ProbeLog:           s.records,
	}, nil
}

func (s *Session) runLoop(initial float64) error {
	n := s.hop.NumChannels()
	targets := s.planner.PlanOrder(s.hop)
	if len(targets) == 0 {
		jc := DirectConfig(n)
		for !s.belief.AggregateExact() && !s.stopReached(initial) {
			progress, err := s.probeOnce(jc)
			if err != nil || !progress {
				return err
			}
		}
		return nil
	}
	for _, target := range targets {
		if s.stopReached(initial) {
			return nil
		}
		jc := IsolateConfig(n, target)
		if s.cfg.MaxProbes > 0 && s.probes+jc.NumJams() > s.cfg.MaxProbes {
			return nil
		}
		s.chargeJams(jc)
		for !s.belief.ChannelExact(target) && !s.stopReached(initial) {
			progress, err := s.probeOnce(jc)
			if err != nil || !progress {
				return err
			}
		}
	}
	return nil
}

// chargeJams accounts for the jam placements needed to apply a config.
// Jams lock up liquidity with payments of their own, so they consume probe
// budget without narrowing the belief.
func (s *Session) chargeJams(jc JamConfig) {
	jams := jc.NumJams()
	s.jamProbes += jams
	s.probes += jams
}

func (s *Session) stopReached(initial float64) bool {
	if s.cfg.MaxProbes > 0 && s.probes >= s.cfg.MaxProbes {
		return true
	}
	if s.cfg.TargetEntropyReduction > 0 &&
		initial-s.belief.Entropy() >= s.cfg.TargetEntropyReduction {
		return true
	}
	return false
}

// probeOnce runs one select/probe/update cycle. It reports no progress when
// the selected amount is already known to die before the target, which ends
// the session early: the belief cannot narrow further from here.
func (s *Session) probeOnce(jc JamConfig) (bool, error) {
	amount, err := s.selector.SelectAmount(s.belief, jc)
	if err != nil {
		return false, err
	}
	if s.blocked >= 0 && amount >= s.blocked {
		log.WithFields(logrus.Fields{
			"session": s.id,
			"amount":  amount,
			"blocked": s.blocked,
		}).Debug("suggested amount cannot reach target, giving up")
		return false, nil
	}
	outcome, reached, err := s.sendProbe(amount, jc)
	if err != nil {
		return false, err
	}
	s.probes++
	s.records = append(s.records, ProbeRecord{
		Amount:  amount,
		Outcome: outcome,
		Reached: reached,
		Jammed:  jc.Clone(),
	})
	if reached {
		if err := s.belief.Update(amount, outcome, jc); err != nil {
			return false, err
		}
	} else {
		s.blocked = amount
	}
	s.trajectory = append(s.trajectory, s.belief.Entropy())
	log.WithFields(logrus.Fields{
		"session": s.id,
		"probe":   s.probes,
		"amount":  amount,
		"outcome": outcome.String(),
		"reached": reached,
	}).Trace("executed a probe")
	return true, nil
}

// sendProbe forwards the probe across the intermediary hops and, if it
// survives them, evaluates it at the target under the jam config. The
// prober learns where a probe died from the returned error source, so a
// failure before the target is distinguishable from a failure at it.
func (s *Session) sendProbe(amount Amount, jc JamConfig) (Outcome, bool, error) {
	for _, mid := range s.via {
		mid.UnjamAll()
		if amount > mid.ForwardingCapacity() {
			return OutcomeFail, false, nil
		}
	}
	outcome, err := s.hop.Probe(amount, jc)
	if err != nil {
		return OutcomeFail, false, err
	}
	return outcome, true, nil
}
