package engine

import (
	"fmt"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/pkg/angle"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
)

// Config selects between the behaviours that differ across deployments
type Config struct {
	Limits           calendar.Limits
	MansionStrategy  string
	StrictComponents bool
	MetalAngle       float64
	Jitter           angle.Jitter
	// Corrections overrides the built-in correction table when set
	Corrections *conversion.CorrectionTable
}

// DefaultConfig returns the stock configuration: table strategy, lenient pillars, no jitter
func DefaultConfig() Config {
	return Config{
		Limits:          calendar.DefaultLimits(),
		MansionStrategy: mansion.DefaultStrategy,
		MetalAngle:      angle.DefaultMetalAngle,
	}
}

// Fingerprint identifies every setting that can change a result for a valid date.
// Cached results are only reusable between engines with equal fingerprints.
func (c Config) Fingerprint() string {
	strategy := c.MansionStrategy
	if strategy == "" {
		strategy = mansion.DefaultStrategy
	}
	metal := c.MetalAngle
	if metal == 0 {
		metal = angle.DefaultMetalAngle
	}
	corrections := c.Corrections
	if corrections == nil {
		corrections = conversion.DefaultCorrections()
	}

	fp := fmt.Sprintf("%s/strict=%t/metal=%g/corr=%s", strategy, c.StrictComponents, metal, corrections.Digest())
	if c.Jitter.Enabled {
		fp += fmt.Sprintf("/jitter=%d:%d", c.Jitter.Seed, c.Jitter.Spread)
	}
	return fp
}
