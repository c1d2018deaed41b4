package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gosize/adapters/correction"
	"gosize/adapters/models"
	"gosize/domain/core"
	"gosize/domain/metric"
	"gosize/domain/power"
	"gosize/internal"
	"gosize/internal/config"
	"gosize/internal/search"
	"gosize/internal/simulation"
	"gosize/ports"
)

// ModelFactory builds the model for a registered metric
type ModelFactory func(metric.Metric) (ports.MetricModel, error)

// SampleSizeCalculator registers metrics and finds the per-arm sample size
// whose expected average power under multiple-testing correction meets the
// configured target
type SampleSizeCalculator struct {
	cfg       config.Config
	corrector ports.Corrector
	policy    ports.AlphaPolicy
	factory   ModelFactory
	objective search.Objective // overrides the Monte-Carlo estimator when set
	logger    *internal.Logger

	mu      sync.RWMutex
	metrics []metric.Metric
	models  []ports.MetricModel
}

// CalculatorOption configures a SampleSizeCalculator
type CalculatorOption func(*SampleSizeCalculator)

// WithModelFactory replaces the kind-based model selection
func WithModelFactory(f ModelFactory) CalculatorOption {
	return func(c *SampleSizeCalculator) { c.factory = f }
}

// WithCorrector replaces the corrector named in the configuration
func WithCorrector(corrector ports.Corrector) CalculatorOption {
	return func(c *SampleSizeCalculator) { c.corrector = corrector }
}

// WithAlphaPolicy replaces the alpha policy named in the configuration
func WithAlphaPolicy(policy ports.AlphaPolicy) CalculatorOption {
	return func(c *SampleSizeCalculator) { c.policy = policy }
}

// WithObjective replaces the power estimator used by the search
func WithObjective(objective search.Objective) CalculatorOption {
	return func(c *SampleSizeCalculator) { c.objective = objective }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) CalculatorOption {
	return func(c *SampleSizeCalculator) { c.logger = l }
}

// NewSampleSizeCalculator creates a calculator for cfg
func NewSampleSizeCalculator(cfg config.Config, opts ...CalculatorOption) (*SampleSizeCalculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &SampleSizeCalculator{
		cfg:     cfg,
		factory: models.New,
		logger:  internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.corrector == nil {
		corrector, err := correction.New(cfg.Search.CorrectionMethod)
		if err != nil {
			return nil, err
		}
		c.corrector = corrector
	}
	if c.policy == nil {
		policy, err := correction.NewAlphaPolicy(cfg.Search.AlphaPolicy)
		if err != nil {
			return nil, err
		}
		c.policy = policy
	}
	return c, nil
}

// Config returns the calculator configuration
func (c *SampleSizeCalculator) Config() config.Config {
	return c.cfg
}

// RegisterMetrics validates descriptors and adds them to the registration.
// Either every descriptor is registered or none is.
func (c *SampleSizeCalculator) RegisterMetrics(descriptors []metric.Descriptor) error {
	metrics, err := metric.FromDescriptors(descriptors)
	if err != nil {
		return err
	}

	built := make([]ports.MetricModel, len(metrics))
	for i, m := range metrics {
		model, err := c.factory(m)
		if err != nil {
			return fmt.Errorf("building model for metric %d: %w", i, err)
		}
		built[i] = model
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = append(c.metrics, metrics...)
	c.models = append(c.models, built...)
	return nil
}

// Metrics returns the registered metrics
func (c *SampleSizeCalculator) Metrics() []metric.Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]metric.Metric(nil), c.metrics...)
}

// InitialBounds derives the search interval from single-test sample sizes.
// Each metric is sized once at the nominal alpha and once at the adjusted
// alpha; the lower bound is the largest nominal size and the upper bound the
// largest adjusted size.
func (c *SampleSizeCalculator) InitialBounds() (power.SearchBounds, error) {
	return c.initialBounds(c.snapshot())
}

// GetSampleSize returns the smallest per-arm sample size found to meet the
// target power
func (c *SampleSizeCalculator) GetSampleSize(ctx context.Context) (int, error) {
	result, err := c.Compute(ctx)
	if err != nil {
		return 0, err
	}
	return result.SampleSize, nil
}

// Compute runs the full computation and returns the search trace
func (c *SampleSizeCalculator) Compute(ctx context.Context) (power.Result, error) {
	runID := core.NewRunID()
	start := time.Now()
	modelSet := c.snapshot()

	bounds, err := c.initialBounds(modelSet)
	if err != nil {
		return power.Result{}, err
	}

	objective, err := c.buildObjective(modelSet)
	if err != nil {
		return power.Result{}, err
	}

	s := c.cfg.Search
	c.logger.Info("[SampleSizeCalculator] run=%s metrics=%d bounds=%s target=%.3f alpha=%.3f correction=%s",
		runID, len(modelSet), bounds, s.TargetPower, s.Alpha, c.corrector.Name())

	result, err := search.NewBisection(objective, c.logger).Run(ctx, bounds, search.Params{
		TargetPower:  s.TargetPower,
		Epsilon:      s.Epsilon,
		Replications: c.cfg.Simulation.Replications,
		MaxDepth:     s.MaxDepth,
	})
	result.RunID = runID.String()
	if err != nil {
		c.logger.Warn("[SampleSizeCalculator] run=%s failed after %d iterations: %v", runID, result.Iterations, err)
		return result, err
	}

	c.logger.Info("[SampleSizeCalculator] run=%s sample_size=%d power=%.4f iterations=%d duration=%v",
		runID, result.SampleSize, result.Power, result.Iterations, time.Since(start))
	return result, nil
}

func (c *SampleSizeCalculator) snapshot() []ports.MetricModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ports.MetricModel(nil), c.models...)
}

func (c *SampleSizeCalculator) initialBounds(modelSet []ports.MetricModel) (power.SearchBounds, error) {
	if len(modelSet) == 0 {
		return power.SearchBounds{}, core.ErrNoMetrics
	}

	alpha := c.cfg.Search.Alpha
	target := c.cfg.Search.TargetPower
	adjusted := c.policy.Adjust(alpha, len(modelSet))
	if !(adjusted > 0 && adjusted <= alpha) {
		return power.SearchBounds{}, fmt.Errorf("%w: %s policy produced alpha %v from %v",
			core.ErrConfiguration, c.policy.Name(), adjusted, alpha)
	}

	lowers, err := requiredSizes(modelSet, alpha, target)
	if err != nil {
		return power.SearchBounds{}, err
	}
	uppers, err := requiredSizes(modelSet, adjusted, target)
	if err != nil {
		return power.SearchBounds{}, err
	}

	bounds := power.SearchBounds{Lower: slices.Max(lowers), Upper: slices.Max(uppers)}
	if err := bounds.Validate(); err != nil {
		return power.SearchBounds{}, err
	}

	c.logger.Debug("[SampleSizeCalculator] nominal alpha=%v sizes=%v adjusted alpha=%v sizes=%v",
		alpha, lowers, adjusted, uppers)
	return bounds, nil
}

func (c *SampleSizeCalculator) buildObjective(modelSet []ports.MetricModel) (search.Objective, error) {
	if c.objective != nil {
		return c.objective, nil
	}
	sim := c.cfg.Simulation
	return simulation.NewPowerEstimator(modelSet, c.corrector, c.cfg.Search.Alpha,
		simulation.WithSeed(sim.Seed),
		simulation.WithWorkers(sim.Workers),
		simulation.WithChunkSize(sim.ChunkSize),
		simulation.WithLogger(c.logger),
	)
}

// requiredSizes sizes every model at alpha, clamping to at least one unit
func requiredSizes(modelSet []ports.MetricModel, alpha, target float64) ([]int, error) {
	sizes := make([]int, len(modelSet))
	for i, model := range modelSet {
		n, err := model.RequiredSampleSize(alpha, target)
		if err != nil {
			return nil, fmt.Errorf("sizing metric %d (%s) at alpha %v: %w", i, model.Kind(), alpha, err)
		}
		sizes[i] = max(1, n)
	}
	return sizes, nil
}
