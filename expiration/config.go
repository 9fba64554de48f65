package expiration

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for sweeper settings that would never sweep or never stop.
var ErrInvalidConfig = errors.New("kvstore: invalid expiration config")

// Defaults follow the classic sample-and-check active expiration.
const (
	DefaultPeriod     = time.Second
	DefaultSampleSize = 20
	DefaultThreshold  = 0.2
)

// Config tunes a Sweeper. None of these values affect correctness, only how fast
// expired-but-unread keys are reclaimed.
//
// A zero Period, SampleSize or Threshold means "use the default" (see WithDefaults), so
// Validate rejects zero for all three instead of letting it be replaced silently.
type Config struct {

	// Period is the time between two sweeps.
	Period time.Duration `yaml:"period"`

	// SampleSize is the number of random keys checked per pass.
	SampleSize int `yaml:"sample_size"`

	// Threshold is the expired/sampled ratio above which a pass is repeated immediately.
	// Must be within (0, 1].
	Threshold float64 `yaml:"threshold"`

	// MaxPasses caps the passes of a single sweep. 0 means no cap.
	MaxPasses int `yaml:"max_passes"`
}

// DefaultConfig returns a 1s period, 20 samples and a 20% threshold.
func DefaultConfig() Config {
	return Config{
		Period:     DefaultPeriod,
		SampleSize: DefaultSampleSize,
		Threshold:  DefaultThreshold,
	}
}

// WithDefaults fills zero fields with their defaults.
func (c Config) WithDefaults() Config {
	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.SampleSize == 0 {
		c.SampleSize = DefaultSampleSize
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	return c
}

// Validate checks that the config describes a sweeper that runs and terminates.
func (c Config) Validate() error {
	switch {
	case c.Period <= 0:
		return fmt.Errorf("%w: period must be positive, got %s", ErrInvalidConfig, c.Period)
	case c.SampleSize <= 0:
		return fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidConfig, c.SampleSize)
	case c.Threshold <= 0 || c.Threshold > 1:
		return fmt.Errorf("%w: threshold must be within (0, 1], got %g (omit it for the default %g)",
			ErrInvalidConfig, c.Threshold, DefaultThreshold)
	case c.MaxPasses < 0:
		return fmt.Errorf("%w: max passes must not be negative, got %d", ErrInvalidConfig, c.MaxPasses)
	}
	return nil
}
