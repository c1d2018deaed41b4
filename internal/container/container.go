package container

import (
	"fmt"

	"gosize/adapters/correction"
	"gosize/adapters/metricfile"
	"gosize/app"
	"gosize/internal"
	"gosize/internal/config"
	"gosize/internal/errors"
	"gosize/ports"
)

// Container holds the collaborators of one sample size computation
type Container struct {
	Config config.Config
	Logger *internal.Logger

	// Statistical components
	Corrector ports.Corrector
	Policy    ports.AlphaPolicy

	// Application service
	Calculator *app.SampleSizeCalculator
}

// New creates a container for cfg. A nil logger uses the default logger.
func New(cfg config.Config, logger *internal.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initStatistics(); err != nil {
		return nil, fmt.Errorf("failed to initialize statistical components: %w", err)
	}
	if err := c.initCalculator(); err != nil {
		return nil, fmt.Errorf("failed to initialize calculator: %w", err)
	}

	c.Logger.Debug("Container initialized: correction=%s alpha_policy=%s workers=%d",
		c.Corrector.Name(), c.Policy.Name(), cfg.Simulation.Workers)
	return c, nil
}

func (c *Container) initStatistics() error {
	corrector, err := correction.New(c.Config.Search.CorrectionMethod)
	if err != nil {
		return err
	}
	policy, err := correction.NewAlphaPolicy(c.Config.Search.AlphaPolicy)
	if err != nil {
		return err
	}
	c.Corrector = corrector
	c.Policy = policy
	return nil
}

func (c *Container) initCalculator() error {
	calc, err := app.NewSampleSizeCalculator(c.Config,
		app.WithCorrector(c.Corrector),
		app.WithAlphaPolicy(c.Policy),
		app.WithLogger(c.Logger),
	)
	if err != nil {
		return err
	}
	c.Calculator = calc
	return nil
}

// LoadMetrics registers every metric in the file at path
func (c *Container) LoadMetrics(path string) error {
	descriptors, err := metricfile.Load(path)
	if err != nil {
		return errors.InvalidInput("failed to load metrics", err)
	}
	if err := c.Calculator.RegisterMetrics(descriptors); err != nil {
		return errors.InvalidInput("failed to register metrics", err)
	}
	c.Logger.Info("Registered %d metrics from %s", len(descriptors), path)
	return nil
}
