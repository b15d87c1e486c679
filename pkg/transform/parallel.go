package transform

import (
	"sync"

	"github.com/scipp/scipp-sub001/pkg/config"
	"github.com/scipp/scipp-sub001/pkg/logger"
	"go.uber.org/zap"
)

var (
	cfgMu     sync.RWMutex
	engineCfg = config.DefaultEngineConfig()
)

// Configure replaces the engine tuning configuration used by all
// subsequent transforms.
func Configure(cfg config.EngineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfgMu.Lock()
	engineCfg = cfg
	cfgMu.Unlock()
	logger.Get().Debug("transform engine configured",
		zap.Int("workers", cfg.Workers),
		zap.Int("parallel_threshold", cfg.ParallelThreshold))
	return nil
}

func currentConfig() config.EngineConfig {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return engineCfg
}

// runBlocks executes fn over [0, volume) as contiguous element ranges.
// Small volumes run on the calling goroutine; larger ones are split into
// one block per worker. The first error wins and is returned after all
// workers finish.
func runBlocks(volume int, fn func(begin, end int) error) error {
	cfg := currentConfig()
	if volume < cfg.ParallelThreshold || cfg.Workers <= 1 {
		return fn(0, volume)
	}
	workers := cfg.Workers
	if workers > volume {
		workers = volume
	}
	chunk := (volume + workers - 1) / workers

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for begin := 0; begin < volume; begin += chunk {
		end := begin + chunk
		if end > volume {
			end = volume
		}
		wg.Add(1)
		go func(begin, end int) {
			defer wg.Done()
			if err := fn(begin, end); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(begin, end)
	}
	wg.Wait()
	return firstErr
}
