// Command txsim runs one experiment or a sweep of experiments defined by
// a YAML config file, writing the mandatory CSV result table and
// (optionally) a supplemental Arrow file, a Prometheus metrics endpoint
// and a ZeroMQ progress feed. Flag style follows
// tools/stress_test/main.go: everything has a usable default, nothing is
// required.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/experiment"
	"github.com/VanDung-dev/txsim-engine/metrics"
	"github.com/VanDung-dev/txsim-engine/resultio"
	"github.com/VanDung-dev/txsim-engine/telemetry"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a single experiment YAML config (default: built-in Default())")
		sweepPath   = flag.String("sweep", "", "path to a sweep YAML file with an experiments: list; overrides -config")
		outCSV      = flag.String("out", "results.csv", "path to write the mandatory CSV result table")
		outArrow    = flag.String("arrow", "", "optional path to also write results in Arrow IPC format")
		workers     = flag.Int("workers", 1, "number of experiments to run concurrently in a sweep")
		metricsAddr = flag.String("metrics-addr", "", "if set, expose Prometheus metrics on this address (e.g. :9090)")
		telemetryHost = flag.String("telemetry-host", "", "if set, broadcast per-tick progress over ZMQ PUB on this host")
		telemetryPort = flag.Int("telemetry-port", 5556, "ZMQ PUB port used with -telemetry-host")
		verbose       = flag.Bool("verbose", false, "log one line per tick to stderr via experiment.LogSink")
	)
	flag.Parse()

	cfgs, err := loadConfigs(*configPath, *sweepPath)
	if err != nil {
		log.Fatalf("txsim: %v", err)
	}

	var metricsServer *metrics.Server
	if *metricsAddr != "" {
		metricsServer = metrics.NewServer(*metricsAddr)
		metricsServer.StartAsync()
		defer metricsServer.Stop()
	}

	var publisher *telemetry.Publisher
	if *telemetryHost != "" {
		publisher = telemetry.NewPublisher(*telemetryHost, *telemetryPort)
		if err := publisher.Start(); err != nil {
			log.Fatalf("txsim: %v", err)
		}
		defer publisher.Stop()
	}

	sinkFactory := func(config.Config) experiment.ProgressSink {
		return buildSink(publisher, *verbose)
	}

	results := experiment.Sweep(cfgs, *workers, sinkFactory)

	if err := writeResults(*outCSV, *outArrow, cfgs, results); err != nil {
		log.Fatalf("txsim: %v", err)
	}

	fmt.Printf("txsim: ran %d experiment(s), wrote %s\n", len(results), *outCSV)
}

// loadConfigs resolves the -sweep/-config flags into a concrete list of
// experiment configs, falling back to a single Default() run when neither
// is given.
func loadConfigs(configPath, sweepPath string) ([]config.Config, error) {
	switch {
	case sweepPath != "":
		return config.LoadSweepFile(sweepPath)
	case configPath != "":
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		return []config.Config{cfg}, nil
	default:
		return []config.Config{config.Default()}, nil
	}
}

// multiSink fans one ProgressSink call out to several sinks. Grounded on
// the same "compose small interfaces" idiom api/metrics.go's middleware
// chaining uses, applied here to sinks instead of HTTP handlers.
type multiSink struct {
	sinks []experiment.ProgressSink
}

func (m multiSink) OnTick(snap experiment.Snapshot) {
	for _, s := range m.sinks {
		s.OnTick(snap)
	}
}

func buildSink(publisher *telemetry.Publisher, verbose bool) experiment.ProgressSink {
	sinks := []experiment.ProgressSink{metrics.NewSink(metrics.Default)}
	if publisher != nil {
		sinks = append(sinks, publisher)
	}
	if verbose {
		sinks = append(sinks, experiment.NewLogSink())
	}
	return multiSink{sinks: sinks}
}

// writeResults writes the mandatory CSV table and, if arrowPath is
// nonempty, a supplemental Arrow IPC file. Failure to open the
// primary result file is a fatal condition worth a nonzero exit code.
func writeResults(csvPath, arrowPath string, cfgs []config.Config, results []experiment.Result) error {
	cw, f, err := resultio.CreateCSVFile(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := make([]resultio.Row, 0, len(results))
	for i, res := range results {
		if err := cw.WriteRow(i, cfgs[i], res); err != nil {
			return err
		}
		rows = append(rows, resultio.Row{ExperimentID: i, Config: cfgs[i], Result: res})
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("txsim: flushing csv: %w", err)
	}

	if arrowPath != "" {
		aw := resultio.NewArrowWriter()
		if err := aw.WriteFile(arrowPath, rows); err != nil {
			return err
		}
	}

	return nil
}
