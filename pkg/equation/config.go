package equation

import (
	"io"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

// Config controls equation reconstruction for one run. It is passed in
// at run start and never mutated afterwards, so several devices can be
// processed concurrently in one process with independent configs.
type Config struct {
	// OutputPolarity selects the orientation of logic equations.
	OutputPolarity qm.Polarity
	// OEPolarity selects the orientation of output-enable equations.
	OEPolarity qm.Polarity

	// Parallelism caps the number of pins minimized concurrently.
	// Zero or negative selects GOMAXPROCS.
	Parallelism int

	// Logger receives per-pin diagnostics. Nil discards them.
	Logger *logrus.Logger
}

// DefaultConfig returns a Config with sensible defaults: automatic
// polarity selection for both equation kinds and full parallelism.
func DefaultConfig() *Config {
	return &Config{
		OutputPolarity: qm.PolarityAuto,
		OEPolarity:     qm.PolarityAuto,
	}
}

// Validate normalizes the configuration.
func (c *Config) Validate() error {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
		c.Logger.SetOutput(io.Discard)
	}
	return nil
}
