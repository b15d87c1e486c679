// Package config provides engine tuning configuration: how many workers the
// transform engine uses and when an element loop is worth parallelizing.
package config

import (
	"runtime"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// EngineConfig controls the data-parallel element loops in the transform
// engine and groupby reductions.
type EngineConfig struct {
	// Workers is the number of goroutines used for parallel element
	// loops. Zero means runtime.NumCPU().
	Workers int `yaml:"workers" json:"workers"`

	// ParallelThreshold is the minimum output volume before an element
	// loop is split across workers. Small loops run sequentially; the
	// goroutine overhead dominates below this size.
	ParallelThreshold int `yaml:"parallel_threshold" json:"parallel_threshold"`
}

// DefaultEngineConfig returns the defaults used when no configuration is
// loaded.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers:           runtime.NumCPU(),
		ParallelThreshold: 16384,
	}
}

// Validate checks the configuration and fills defaults for zero fields.
func (c *EngineConfig) Validate() error {
	if c.Workers < 0 {
		return scipperrors.Newf(scipperrors.KindInternal, "negative worker count %d", c.Workers)
	}
	if c.ParallelThreshold < 0 {
		return scipperrors.Newf(scipperrors.KindInternal,
			"negative parallel threshold %d", c.ParallelThreshold)
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = DefaultEngineConfig().ParallelThreshold
	}
	return nil
}
