package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gosize/app"
	"gosize/domain/power"
	"gosize/internal"
	"gosize/internal/config"
	"gosize/internal/container"
	"gosize/internal/errors"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:           "samplesize",
		Short:         "Sample size calculator for experiments with many metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newComputeCmd(), newBoundsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(errors.ExitCode(err))
	}
}

// overrides holds flag values that replace environment configuration when set
type overrides struct {
	metricsPath  string
	logLevel     string
	power        float64
	alpha        float64
	epsilon      float64
	replications int
	maxDepth     int
	workers      int
	seed         uint64
	correction   string
	alphaPolicy  string
}

func (o *overrides) register(cmd *cobra.Command) {
	def := config.Default()
	f := cmd.Flags()
	f.StringVarP(&o.metricsPath, "metrics", "m", "", "Metric registration file (YAML or JSON)")
	f.StringVar(&o.logLevel, "log-level", "", "Log level: error|warn|info|debug|trace (default from LOG_LEVEL)")
	f.Float64Var(&o.power, "power", def.Search.TargetPower, "Target expected average power")
	f.Float64Var(&o.alpha, "alpha", def.Search.Alpha, "Nominal significance level")
	f.Float64Var(&o.epsilon, "epsilon", def.Search.Epsilon, "Acceptable distance from the target power")
	f.IntVar(&o.replications, "replications", def.Simulation.Replications, "Monte-Carlo replications per candidate")
	f.IntVar(&o.maxDepth, "max-depth", def.Search.MaxDepth, "Maximum number of candidates evaluated")
	f.IntVar(&o.workers, "workers", def.Simulation.Workers, "Parallel simulation workers")
	f.Uint64Var(&o.seed, "seed", def.Simulation.Seed, "Random seed for deterministic estimates")
	f.StringVar(&o.correction, "correction", def.Search.CorrectionMethod, "Correction method: fdr_bh|bonferroni|holm")
	f.StringVar(&o.alphaPolicy, "alpha-policy", def.Search.AlphaPolicy, "Upper bound alpha policy: bonferroni|sidak")
	_ = cmd.MarkFlagRequired("metrics")
}

// apply loads environment configuration and layers explicitly set flags on top
func (o *overrides) apply(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("power") {
		cfg.Search.TargetPower = o.power
	}
	if f.Changed("alpha") {
		cfg.Search.Alpha = o.alpha
	}
	if f.Changed("epsilon") {
		cfg.Search.Epsilon = o.epsilon
	}
	if f.Changed("max-depth") {
		cfg.Search.MaxDepth = o.maxDepth
	}
	if f.Changed("correction") {
		cfg.Search.CorrectionMethod = o.correction
	}
	if f.Changed("alpha-policy") {
		cfg.Search.AlphaPolicy = o.alphaPolicy
	}
	if f.Changed("replications") {
		cfg.Simulation.Replications = o.replications
	}
	if f.Changed("workers") {
		cfg.Simulation.Workers = o.workers
	}
	if f.Changed("seed") {
		cfg.Simulation.Seed = o.seed
	}
	return cfg, cfg.Validate()
}

func (o *overrides) calculator(cmd *cobra.Command) (*app.SampleSizeCalculator, error) {
	cfg, err := o.apply(cmd)
	if err != nil {
		return nil, err
	}

	logger := internal.DefaultLogger
	if o.logLevel != "" {
		logger = internal.NewLogger(internal.ParseLogLevel(o.logLevel, internal.LogLevelInfo))
	}

	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.LoadMetrics(o.metricsPath); err != nil {
		return nil, err
	}
	return c.Calculator, nil
}

func newComputeCmd() *cobra.Command {
	var o overrides
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Find the per-arm sample size that reaches the target power",
		Long: `Find the smallest per-arm sample size whose expected average power, after
multiple-testing correction across all registered metrics, is within epsilon of
the target.

Settings are read from SAMPLESIZE_* environment variables (and .env) and can be
overridden with flags.

Example: samplesize compute --metrics metrics.yaml --power 0.9 --correction holm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := o.calculator(cmd)
			if err != nil {
				return err
			}

			result, err := calc.Compute(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printResult(cmd, calc.Config(), result)
			return nil
		},
	}

	o.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result and search trace as JSON")
	return cmd
}

func newBoundsCmd() *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Print the initial search interval without simulating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := o.calculator(cmd)
			if err != nil {
				return err
			}
			bounds, err := calc.InitialBounds()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lower=%d upper=%d\n", bounds.Lower, bounds.Upper)
			return nil
		},
	}

	o.register(cmd)
	return cmd
}

func writeJSON(cmd *cobra.Command, result power.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	return nil
}

func printResult(cmd *cobra.Command, cfg config.Config, result power.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sample size per arm: %d\n", result.SampleSize)
	fmt.Fprintf(out, "Expected average power: %.4f (target %.3f ± %.3f)\n",
		result.Power, result.TargetPower, cfg.Search.Epsilon)
	fmt.Fprintf(out, "Initial bounds: %s\n", result.Initial)
	fmt.Fprintf(out, "Iterations: %d\n", result.Iterations)
	for _, s := range result.Steps {
		fmt.Fprintf(out, "  %2d  %-14s n=%-8d power=%.4f\n", s.Depth, s.Bounds, s.Candidate, s.Power)
	}
	fmt.Fprintf(out, "Run: %s\n", result.RunID)
}
