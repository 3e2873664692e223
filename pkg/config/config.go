// Package config defines the recognized configuration surface for the
// scheduling core: solver tuning, checkpoint policy, and analytics defaults.
package config

import (
	"fmt"

	"go.uber.org/multierr"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/meridian-health/resicore/pkg/errs"
	"github.com/meridian-health/resicore/pkg/model"
)

type SolverBackend string

const (
	BackendAuto   SolverBackend = "auto"
	BackendGreedy SolverBackend = "greedy"
	BackendILP    SolverBackend = "ilp"
	BackendCPSAT  SolverBackend = "cpsat"
	BackendHybrid SolverBackend = "hybrid"
)

type SolverConfig struct {
	DefaultBackend    SolverBackend
	TimeBudgetMS      int
	AntiChurnAlpha    float64
	MaxChurnPerPerson int
	RngSeed           *uint64
}

type ConstraintConfig struct {
	StrictMode bool
}

type CheckpointConfig struct {
	LockTTLMS         int
	BoundariesEnabled sets.Set[model.CheckpointBoundary]
}

type RtConfig struct {
	SerialIntervalMeanDays float64
	SerialIntervalStdDays  float64
	WindowSize             int
}

type SIRConfig struct {
	DefaultBeta  float64
	DefaultGamma float64
}

type SPCConfig struct {
	SigmaMultiplier float64
}

type SubharmonicConfig struct {
	MinSignificance float64
}

type SpinGlassConfig struct {
	DefaultTemperature float64
}

type AnalyticsConfig struct {
	Rt          RtConfig
	SIR         SIRConfig
	SPC         SPCConfig
	Subharmonic SubharmonicConfig
	SpinGlass   SpinGlassConfig
}

// Config is the full recognized configuration surface of the core.
type Config struct {
	Solver     SolverConfig
	Constraint ConstraintConfig
	Checkpoint CheckpointConfig
	Analytics  AnalyticsConfig
}

// Default returns the configuration with every documented default applied.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			DefaultBackend:    BackendAuto,
			TimeBudgetMS:      60000,
			AntiChurnAlpha:    0.3,
			MaxChurnPerPerson: 5,
		},
		Constraint: ConstraintConfig{
			StrictMode: true,
		},
		Checkpoint: CheckpointConfig{
			LockTTLMS: 60000,
			BoundariesEnabled: sets.New(
				model.BoundaryWeekStart,
				model.BoundaryBlockEnd,
				model.BoundaryACGMEWindow,
				model.BoundaryManual,
			),
		},
		Analytics: AnalyticsConfig{
			Rt: RtConfig{
				SerialIntervalMeanDays: 7,
				SerialIntervalStdDays:  3,
				WindowSize:             7,
			},
			SIR: SIRConfig{
				DefaultBeta:  0.3,
				DefaultGamma: 0.1,
			},
			SPC: SPCConfig{
				SigmaMultiplier: 3.0,
			},
			Subharmonic: SubharmonicConfig{
				MinSignificance: 0.3,
			},
			SpinGlass: SpinGlassConfig{
				DefaultTemperature: 1.0,
			},
		},
	}
}

var supportedBackends = sets.New(BackendAuto, BackendGreedy, BackendILP, BackendCPSAT, BackendHybrid)

// Validate aggregates every configuration error found, rather than failing
// on the first one, so a caller can fix a misconfigured deployment in one
// pass.
func (c Config) Validate() error {
	var result error
	if !supportedBackends.Has(c.Solver.DefaultBackend) {
		result = multierr.Append(result, fmt.Errorf("solver.default_backend: unsupported value %q", c.Solver.DefaultBackend))
	}
	if c.Solver.TimeBudgetMS <= 0 {
		result = multierr.Append(result, fmt.Errorf("solver.time_budget_ms: must be positive, got %d", c.Solver.TimeBudgetMS))
	}
	if c.Solver.AntiChurnAlpha < 0 || c.Solver.AntiChurnAlpha > 1 {
		result = multierr.Append(result, fmt.Errorf("solver.anti_churn_alpha: must be in [0,1], got %f", c.Solver.AntiChurnAlpha))
	}
	if c.Solver.MaxChurnPerPerson < 0 {
		result = multierr.Append(result, fmt.Errorf("solver.max_churn_per_person: must be >= 0, got %d", c.Solver.MaxChurnPerPerson))
	}
	if c.Checkpoint.LockTTLMS <= 0 {
		result = multierr.Append(result, fmt.Errorf("checkpoint.lock_ttl_ms: must be positive, got %d", c.Checkpoint.LockTTLMS))
	}
	if c.Checkpoint.BoundariesEnabled.Len() == 0 {
		result = multierr.Append(result, fmt.Errorf("checkpoint.boundaries_enabled: must not be empty"))
	}
	if c.Analytics.Rt.WindowSize <= 0 {
		result = multierr.Append(result, fmt.Errorf("analytics.rt.window_size: must be positive, got %d", c.Analytics.Rt.WindowSize))
	}
	if c.Analytics.SPC.SigmaMultiplier <= 0 {
		result = multierr.Append(result, fmt.Errorf("analytics.spc.sigma_multiplier: must be positive, got %f", c.Analytics.SPC.SigmaMultiplier))
	}
	if c.Analytics.Subharmonic.MinSignificance < 0 || c.Analytics.Subharmonic.MinSignificance > 1 {
		result = multierr.Append(result, fmt.Errorf("analytics.subharmonic.min_significance: must be in [0,1], got %f", c.Analytics.Subharmonic.MinSignificance))
	}
	if result != nil {
		return errs.Wrap(multierr.Combine(errs.ErrConfig, result))
	}
	return nil
}

// New returns Default() with overrides applied, then validates the result.
func New(overrides func(*Config)) (Config, error) {
	c := Default()
	if overrides != nil {
		overrides(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
