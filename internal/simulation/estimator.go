package simulation

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"gosize/adapters/rng"
	"gosize/domain/core"
	"gosize/domain/power"
	"gosize/internal"
	"gosize/ports"
)

// streamName keys the RNG streams used for power trials
const streamName = "expected_average_power"

// PowerEstimator estimates the expected average power of a family of metrics
// after multiple-testing correction by Monte-Carlo simulation.
//
// Trials are grouped into fixed-size chunks. Chunk i always draws from stream
// (seed, i), and each trial writes to its own slot, so the estimate depends on
// the seed only and not on the worker count. Every call reuses the same
// streams, which gives common random numbers across candidate sample sizes.
//
// Models and the corrector are shared between workers and must be safe for
// concurrent use.
type PowerEstimator struct {
	models    []ports.MetricModel
	corrector ports.Corrector
	alpha     float64

	rng       ports.RNGPort
	seed      uint64
	workers   int
	chunkSize int
	logger    *internal.Logger
}

// Option configures a PowerEstimator
type Option func(*PowerEstimator)

// WithSeed sets the base seed of the RNG streams
func WithSeed(seed uint64) Option {
	return func(e *PowerEstimator) { e.seed = seed }
}

// WithWorkers bounds the number of chunks simulated concurrently
func WithWorkers(workers int) Option {
	return func(e *PowerEstimator) { e.workers = workers }
}

// WithChunkSize sets the number of trials drawn from one RNG stream
func WithChunkSize(size int) Option {
	return func(e *PowerEstimator) { e.chunkSize = size }
}

// WithRNG replaces the RNG stream provider
func WithRNG(r ports.RNGPort) Option {
	return func(e *PowerEstimator) { e.rng = r }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(e *PowerEstimator) { e.logger = l }
}

// NewPowerEstimator creates an estimator over models, corrected at alpha
func NewPowerEstimator(models []ports.MetricModel, corrector ports.Corrector, alpha float64, opts ...Option) (*PowerEstimator, error) {
	if len(models) == 0 {
		return nil, core.ErrNoMetrics
	}
	if corrector == nil {
		return nil, fmt.Errorf("%w: corrector is required", core.ErrConfiguration)
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, core.NewArgumentError("alpha", alpha)
	}

	e := &PowerEstimator{
		models:    models,
		corrector: corrector,
		alpha:     alpha,
		rng:       rng.NewPCGAdapter(),
		workers:   1,
		chunkSize: 64,
		logger:    internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.workers < 1 {
		return nil, core.NewArgumentError("workers", e.workers)
	}
	if e.chunkSize < 1 {
		return nil, core.NewArgumentError("chunk_size", e.chunkSize)
	}
	return e, nil
}

// Estimate runs replications trials at sampleSize per arm. Each trial draws
// one p-value per metric under its true effect, corrects the family and
// scores the fraction of rejected hypotheses. The estimate is the mean score.
func (e *PowerEstimator) Estimate(ctx context.Context, sampleSize, replications int) (power.Estimate, error) {
	if sampleSize < 1 {
		return power.Estimate{}, core.NewArgumentError("sample_size", sampleSize)
	}
	if replications < 1 {
		return power.Estimate{}, core.NewArgumentError("replications", replications)
	}

	scores := make([]float64, replications)
	chunks := (replications + e.chunkSize - 1) / e.chunkSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for chunk := 0; chunk < chunks; chunk++ {
		start := chunk * e.chunkSize
		end := min(start+e.chunkSize, replications)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return e.runChunk(chunk, sampleSize, scores[start:end])
		})
	}

	if err := g.Wait(); err != nil {
		return power.Estimate{}, err
	}

	mean, err := stats.Mean(scores)
	if err != nil {
		return power.Estimate{}, fmt.Errorf("aggregating %d trials: %w", replications, err)
	}

	stdErr := 0.0
	if replications > 1 {
		sd, err := stats.StandardDeviationSample(scores)
		if err != nil {
			return power.Estimate{}, fmt.Errorf("aggregating %d trials: %w", replications, err)
		}
		stdErr = sd / math.Sqrt(float64(replications))
	}

	estimate := power.Estimate{
		SampleSize:   sampleSize,
		Replications: replications,
		Power:        mean,
		StdErr:       stdErr,
	}
	e.logger.Trace("[PowerEstimator] n=%d replications=%d power=%.4f stderr=%.4f",
		sampleSize, replications, estimate.Power, estimate.StdErr)
	return estimate, nil
}

// EstimatePower is Estimate reduced to the power value
func (e *PowerEstimator) EstimatePower(ctx context.Context, sampleSize, replications int) (float64, error) {
	estimate, err := e.Estimate(ctx, sampleSize, replications)
	if err != nil {
		return 0, err
	}
	return estimate.Power, nil
}

// runChunk fills scores with one trial score each, drawing from the chunk's stream
func (e *PowerEstimator) runChunk(chunk, sampleSize int, scores []float64) error {
	r := e.rng.Stream(streamName, e.seed, chunk)
	pValues := make([]float64, len(e.models))

	for trial := range scores {
		for i, model := range e.models {
			pValues[i] = model.SimulatePValue(r, sampleSize)
		}

		rejected, err := e.corrector.Correct(pValues, e.alpha)
		if err != nil {
			return fmt.Errorf("%s correction failed: %w", e.corrector.Name(), err)
		}
		if len(rejected) != len(pValues) {
			return fmt.Errorf("%s correction returned %d decisions for %d p-values",
				e.corrector.Name(), len(rejected), len(pValues))
		}

		detected := 0
		for _, hit := range rejected {
			if hit {
				detected++
			}
		}
		scores[trial] = float64(detected) / float64(len(rejected))
	}
	return nil
}
