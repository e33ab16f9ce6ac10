package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dtindex/internal/config"
	"dtindex/internal/dataset"
	"dtindex/internal/infrastructure"
	"dtindex/internal/services"
	"dtindex/pkg/contracts/domain"
)

// cli holds the state shared by every subcommand
type cli struct {
	file     string
	logLevel string
	asJSON   bool

	stdout io.Writer
	stderr io.Writer

	logger  *slog.Logger
	paths   *config.Paths
	service *services.DashboardService
}

// filterFlags are the view selectors most subcommands accept
type filterFlags struct {
	entity string
	from   int
	to     int
	ranges []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.entity, "entity", "", "company code (normalised to six digits)")
	cmd.Flags().IntVar(&f.from, "from", 0, "first year, inclusive")
	cmd.Flags().IntVar(&f.to, "to", 0, "last year, inclusive")
	cmd.Flags().StringArrayVar(&f.ranges, "range", nil, "value range as <dimension>:<min>:<max> (repeatable)")
}

func (f *filterFlags) spec() (domain.FilterSpec, error) {
	spec := domain.FilterSpec{YearFrom: f.from, YearTo: f.to}
	if raw := strings.TrimSpace(f.entity); raw != "" {
		spec.EntityID = dataset.NormalizeID(raw)
	}
	for _, raw := range f.ranges {
		dim, rng, err := domain.ParseRange(raw)
		if err != nil {
			return spec, fmt.Errorf("--range: %w", err)
		}
		if spec.Ranges == nil {
			spec.Ranges = make(map[string]domain.Range)
		}
		spec.Ranges[dim] = rng
	}
	return spec, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "dtindex",
		Short: "Digital transformation index analytics",
		Long: `dtindex answers the dashboard questions from the command line: company
overviews, descriptive statistics, trends, forecasts and comparisons over the
annual digital transformation index. The dataset comes from the configured
source (config.yaml and DTI_* variables) unless --file names a workbook or CSV.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&c.file, "file", "", "dataset file (.xlsx or .csv), overrides the configured source")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr: debug, info, warn, error")

	root.AddCommand(
		c.entitiesCmd(),
		c.overviewCmd(),
		c.describeCmd(),
		c.trendCmd(),
		c.correlationCmd(),
		c.forecastCmd(),
		c.compareCmd(),
		c.exportCmd(),
		c.versionCmd(),
	)
	return root
}

// setup loads configuration and builds the dashboard service over the dataset cache
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if c.file != "" {
		abs, err := filepath.Abs(c.file)
		if err != nil {
			return fmt.Errorf("--file: %w", err)
		}
		cfg.Dataset.File = abs
		cfg.Dataset.Source = sourceFor(abs)
	}

	c.logger = infrastructure.NewLogger(c.stderr, c.logLevel)
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))

	c.paths, err = cfg.ResolvePaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	source, err := dataset.NewSourceFromConfig(cfg, c.paths)
	if err != nil {
		return err
	}
	c.logger.Debug("Dataset source selected",
		slog.String("kind", source.Kind()),
		slog.String("location", source.Location()))

	cache := dataset.NewCache(source, c.logger, nil).WithLoadTimeout(cfg.Dataset.LoadTimeout)
	c.service = services.NewDashboardService(cache, nil, c.logger)
	return nil
}

// sourceFor picks the loader from the file extension; anything else is read as a workbook
func sourceFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return config.SourceCSV
	}
	return config.SourceExcel
}
