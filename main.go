package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/s-tikhomirov/ln-probing-simulator/prober"
)

func main() {

	app := cli.NewApp()
	app.Name = "ln-probing-simulator"
	app.Usage = "estimate channel balances of target hops via probing"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "experiment",
			Value: "isolated",
			Usage: "experiment to run: isolated, snapshot or ratios",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML experiment config",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "override the config seed",
		},
		cli.IntFlag{
			Name:  "num_hops",
			Usage: "number of target hops per round",
		},
		cli.IntFlag{
			Name:  "num_runs",
			Usage: "number of rounds per parameter point",
		},
		cli.IntFlag{
			Name:  "max_channels",
			Usage: "largest hop size to sweep",
		},
		cli.BoolFlag{
			Name:  "jamming",
			Usage: "jam parallel channels to probe them individually",
		},
		cli.StringFlag{
			Name:  "strategy",
			Usage: "run a single amount strategy: bs or nbs",
		},
		cli.StringFlag{
			Name:  "snapshot",
			Usage: "path to a listchannels snapshot",
		},
		cli.IntFlag{
			Name:  "max_probes",
			Usage: "probe budget per hop, 0 for unlimited",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "trace every probe",
		},
	}

	app.Action = func(c *cli.Context) error {
		log := initLogger()

		cfg := defaultConfig()
		if path := c.String("config"); path != "" {
			var err error
			cfg, err = loadConfig(path)
			if err != nil {
				return err
			}
		}
		if c.IsSet("seed") {
			cfg.Seed = c.Int64("seed")
		}
		if c.IsSet("num_hops") {
			cfg.NumTargetHops = c.Int("num_hops")
		}
		if c.IsSet("num_runs") {
			cfg.NumRuns = c.Int("num_runs")
		}
		if c.IsSet("max_channels") {
			cfg.MaxChannels = c.Int("max_channels")
		}
		if c.IsSet("jamming") {
			cfg.Jamming = c.Bool("jamming")
		}
		if strategy := c.String("strategy"); strategy != "" {
			cfg.Strategies = []string{strategy}
		}
		if path := c.String("snapshot"); path != "" {
			cfg.SnapshotPath = path
		}
		if c.IsSet("max_probes") {
			cfg.MaxProbes = c.Int("max_probes")
		}
		if c.Bool("verbose") {
			log.SetLevel(logrus.TraceLevel)
			prober.SetLogLevel(logrus.TraceLevel)
		}

		experiment := c.String("experiment")
		log.WithFields(logrus.Fields{
			"experiment": experiment,
			"seed":       cfg.Seed,
			"jamming":    cfg.Jamming,
			"strategies": cfg.Strategies,
		}).Info("starting experiment")

		switch experiment {
		case "isolated":
			return IsolatedEval(cfg, log)
		case "snapshot":
			if cfg.SnapshotPath == "" {
				return fmt.Errorf("the snapshot experiment needs a snapshot path")
			}
			return SnapshotEval(cfg, log)
		case "ratios":
			return RatioEval(cfg, log)
		default:
			return fmt.Errorf("unknown experiment:%v", experiment)
		}
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Printf("faced error:%v\n", err)
		os.Exit(1)
	}
}
