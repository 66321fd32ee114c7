package experiment

import (
	"sync"

	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/rng"
)

// sweepTask pairs a config with the index it must report results at, so
// Sweep's output order matches input order even though workers finish out
// of order — the same problem hierachain-engine/core/worker_pool.go solves
// by matching Result.TaskID back to the caller's Task.
type sweepTask struct {
	index int
	cfg   config.Config
}

// Sweep runs every cfg through its own fully independent Driver, using up
// to workers goroutines concurrently. Each Driver owns its own topology,
// pool, known-set store, propagation engine and publisher — nothing is
// shared between them, so no locking is needed inside a single
// experiment, only across the worker pool's task queue itself. Adapted
// from hierachain-engine/core/worker_pool.go's Task/Result/WorkerPool
// shape, simplified to a fixed batch of work rather than a long-lived
// pool, since a sweep has a known, finite task list up front.
func Sweep(cfgs []config.Config, workers int, sinkFactory func(config.Config) ProgressSink) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(cfgs) {
		workers = len(cfgs)
	}

	tasks := make(chan sweepTask, len(cfgs))
	for i, cfg := range cfgs {
		tasks <- sweepTask{index: i, cfg: cfg}
	}
	close(tasks)

	results := make([]Result, len(cfgs))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				var sink ProgressSink
				if sinkFactory != nil {
					sink = sinkFactory(t.cfg)
				}
				source := seedSource(t.cfg)
				driver := New(t.cfg, source, sink)
				results[t.index] = driver.Run()
			}
		}()
	}
	wg.Wait()

	return results
}

// seedSource returns a fixed-seed Source when cfg.Seed is nonzero
// (reproducible runs), otherwise one seeded from the OS clock.
func seedSource(cfg config.Config) rng.Source {
	if cfg.Seed != 0 {
		return rng.New(cfg.Seed)
	}
	return rng.NewFromClock()
}
