package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/s-tikhomirov/ln-probing-simulator/prober"
	"github.com/s-tikhomirov/ln-probing-simulator/snapshot"
	"github.com/s-tikhomirov/ln-probing-simulator/synthetic"
)

func initLogger() *logrus.Logger {
	file := time.Now().Format("20060102030405") + ".sum"
	summaryLogFile, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0766)
	if err != nil {
		fmt.Printf("open log file failed.\n")
	}

	file1 := time.Now().Format("20060102030405") + ".log"
	logFile, err := os.OpenFile(file1, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0766)
	if err != nil {
		fmt.Printf("open log file failed.\n")
	}

	log := logrus.New()
	lfHook := lfshook.NewHook(lfshook.WriterMap{
		logrus.DebugLevel: summaryLogFile,
		logrus.InfoLevel:  summaryLogFile,
		logrus.WarnLevel:  summaryLogFile,
		logrus.ErrorLevel: summaryLogFile,
		logrus.FatalLevel: summaryLogFile,
		logrus.PanicLevel: summaryLogFile,
		logrus.TraceLevel: logFile,
	}, &logrus.JSONFormatter{})
	log.AddHook(lfHook)

	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	return log
}

// batchStats aggregates one round of probing over a set of target hops.
type batchStats struct {
	// GainShare is resolved uncertainty over initial uncertainty, in [0, 1].
	GainShare float64
	// BitsPerProbe is the probing speed: information gained per probe,
	// jams included.
	BitsPerProbe float64
	// Probes is the total probe count across the hop set.
	Probes int
	// FailedHops counts hops skipped because their session errored.
	FailedHops int
}

// probeHopSet runs one session per hop and aggregates gain and speed. A
// failing session is logged and skipped so one bad hop does not abort the
// whole round.
func probeHopSet(hops []*prober.Hop, scfg prober.SessionConfig,
	log *logrus.Logger) *batchStats {

	stats := &batchStats{}
	var initialTotal, finalTotal float64
	for i, hop := range hops {
		session, err := prober.NewSession(hop, nil, scfg)
		if err == nil {
			var result *prober.Result
			result, err = session.Run()
			if err == nil {
				initialTotal += result.InitialEntropyBits
				finalTotal += result.FinalEntropyBits
				stats.Probes += result.TotalProbes
				continue
			}
		}
		stats.FailedHops++
		log.WithFields(logrus.Fields{
			"hop":   i,
			"error": err.Error(),
		}).Warn("skipping hop after session failure")
	}
	gained := initialTotal - finalTotal
	if initialTotal > 0 {
		stats.GainShare = gained / initialTotal
	}
	if stats.Probes > 0 {
		stats.BitsPerProbe = gained / float64(stats.Probes)
	}
	return stats
}

func roundRng(cfg *ExperimentConfig, sweep, run int) *rand.Rand {
	return rand.New(rand.NewSource(cfg.Seed + int64(sweep)*1000003 + int64(run)))
}

// IsolatedEval probes generated target hops with 1..MaxChannels channels
// and reports gain and speed per channel count and strategy.
func IsolatedEval(cfg *ExperimentConfig, log *logrus.Logger) error {
	for n := 1; n <= cfg.MaxChannels; n++ {
		for _, strategy := range cfg.Strategies {
			scfg, err := cfg.sessionConfig(strategy)
			if err != nil {
				return err
			}
			var gainSum, speedSum float64
			probesTotal := 0
			for run := 0; run < cfg.NumRuns; run++ {
				rng := roundRng(cfg, n, run)
				hops, err := synthetic.GenerateHops(rng, cfg.NumTargetHops, n,
					prober.Amount(cfg.MinCapacity), prober.Amount(cfg.MaxCapacity))
				if err != nil {
					return err
				}
				stats := probeHopSet(hops, scfg, log)
				gainSum += stats.GainShare
				speedSum += stats.BitsPerProbe
				probesTotal += stats.Probes
				log.WithFields(logrus.Fields{
					"channels": n,
					"run":      run,
					"strategy": strategy,
					"gain":     stats.GainShare,
					"speed":    stats.BitsPerProbe,
					"probes":   stats.Probes,
				}).Trace("finished an isolated probing round")
			}
			log.WithFields(logrus.Fields{
				"channels":  n,
				"strategy":  strategy,
				"jamming":   cfg.Jamming,
				"avg_gain":  gainSum / float64(cfg.NumRuns),
				"avg_speed": speedSum / float64(cfg.NumRuns),
				"probes":    probesTotal,
			}).Info("isolated probing results")
		}
	}
	return nil
}

// SnapshotEval probes target hops selected from a network snapshot.
func SnapshotEval(cfg *ExperimentConfig, log *logrus.Logger) error {
	snap, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"path": cfg.SnapshotPath,
		"hops": snap.NumHops(),
	}).Info("loaded snapshot")

	for n := 1; n <= cfg.MaxChannels; n++ {
		for _, strategy := range cfg.Strategies {
			scfg, err := cfg.sessionConfig(strategy)
			if err != nil {
				return err
			}
			var gainSum, speedSum float64
			rounds := 0
			for run := 0; run < cfg.NumRuns; run++ {
				rng := roundRng(cfg, n, run)
				targets := snap.SampleTargets(rng, n, cfg.NumTargetHops)
				if len(targets) == 0 {
					break
				}
				hops := make([]*prober.Hop, 0, len(targets))
				for _, hi := range targets {
					hop, err := hi.Hop(rng)
					if err != nil {
						return err
					}
					hops = append(hops, hop)
				}
				stats := probeHopSet(hops, scfg, log)
				gainSum += stats.GainShare
				speedSum += stats.BitsPerProbe
				rounds++
			}
			if rounds == 0 {
				log.WithFields(logrus.Fields{
					"channels": n,
				}).Warn("snapshot has no hops with this channel count")
				continue
			}
			log.WithFields(logrus.Fields{
				"channels":  n,
				"strategy":  strategy,
				"jamming":   cfg.Jamming,
				"avg_gain":  gainSum / float64(rounds),
				"avg_speed": speedSum / float64(rounds),
			}).Info("snapshot probing results")
		}
	}
	return nil
}

// RatioEval studies two-channel hops as the ratio between the two
// capacities grows. The more unequal the pair, the more the aggregate
// leaks about the individual balances, which favors the optimized
// strategy over plain bisection.
func RatioEval(cfg *ExperimentConfig, log *logrus.Logger) error {
	shortSide := prober.Amount(1 << 20)
	for ratio := 1; ratio <= cfg.MaxRatio; ratio++ {
		capacities := []prober.Amount{shortSide, prober.Amount(ratio) * shortSide}
		for _, strategy := range cfg.Strategies {
			scfg, err := cfg.sessionConfig(strategy)
			if err != nil {
				return err
			}
			var gainSum, speedSum float64
			for run := 0; run < cfg.NumRuns; run++ {
				rng := roundRng(cfg, ratio, run)
				hops := make([]*prober.Hop, 0, cfg.NumTargetHops)
				for i := 0; i < cfg.NumTargetHops; i++ {
					hop, err := prober.NewRandomHop(rng, capacities)
					if err != nil {
						return err
					}
					hops = append(hops, hop)
				}
				stats := probeHopSet(hops, scfg, log)
				gainSum += stats.GainShare
				speedSum += stats.BitsPerProbe
			}
			log.WithFields(logrus.Fields{
				"ratio":     ratio,
				"strategy":  strategy,
				"avg_gain":  gainSum / float64(cfg.NumRuns),
				"avg_speed": speedSum / float64(cfg.NumRuns),
			}).Info("capacity ratio results")
		}
	}
	return nil
}
