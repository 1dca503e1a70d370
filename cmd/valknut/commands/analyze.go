// Package commands provides valknut's CLI command implementations.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sibyllinesoft/valknut/internal/config"
	"github.com/sibyllinesoft/valknut/internal/detect/clones"
	"github.com/sibyllinesoft/valknut/internal/detect/coverage"
	"github.com/sibyllinesoft/valknut/internal/langs"
	"github.com/sibyllinesoft/valknut/internal/observability"
	"github.com/sibyllinesoft/valknut/internal/pipeline"
	"github.com/sibyllinesoft/valknut/internal/report"
	"github.com/sibyllinesoft/valknut/internal/report/render"
)

// Supported --format values. Other renderers (HTML, SARIF, ...) are out
// of scope for this build.
const (
	formatPretty = "pretty"
	formatJSON   = "json"
	formatYAML   = "yaml"
)

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	configPath string
	format     string
	out        string
	verbose    bool
	quiet      bool
	noColor    bool

	noComplexity bool
	noStructure  bool
	noDependency bool
	noClones     bool
	noCoverage   bool

	metricsAddr string
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Run the analysis pipeline over a source tree",
		Long:  "Analyze walks a source tree, runs every enabled detector, and reports prioritized refactoring candidates.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  ac.Run,
	}

	flags := cobraCmd.Flags()
	flags.StringVar(&ac.configPath, "config", "", "path to .valknut.yaml (default: search CWD and $HOME)")
	flags.StringVarP(&ac.format, "format", "f", formatPretty, "output format: pretty, json, or yaml")
	flags.StringVarP(&ac.out, "out", "o", "", "output file (default: stdout)")
	flags.BoolVarP(&ac.verbose, "verbose", "v", false, "verbose logging")
	flags.BoolVarP(&ac.quiet, "quiet", "q", false, "suppress non-error logging")
	flags.BoolVar(&ac.noColor, "no-color", false, "disable colored pretty output")
	flags.BoolVar(&ac.noComplexity, "no-complexity", false, "disable the complexity detector")
	flags.BoolVar(&ac.noStructure, "no-structure", false, "disable the structure detector")
	flags.BoolVar(&ac.noDependency, "no-dependency", false, "disable the dependency detector")
	flags.BoolVar(&ac.noClones, "no-clones", false, "disable clone detection")
	flags.BoolVar(&ac.noCoverage, "no-coverage", false, "disable coverage gap scoring")
	flags.StringVar(&ac.metricsAddr, "metrics-addr", "", "serve /healthz, /readyz, and /metrics on this address for the run's duration (default: disabled)")

	return cobraCmd
}

// Run executes the analyze command.
func (ac *AnalyzeCommand) Run(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	if ac.format != formatPretty && ac.format != formatJSON && ac.format != formatYAML {
		return fmt.Errorf("unsupported --format %q: valknut's core build renders pretty, json, or yaml", ac.format)
	}

	providers, err := observability.Init(ac.observabilityConfig())
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	logger := providers.Logger

	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := langs.NewRegistry()

	runCfg := buildRunConfig(cfg, registry, root)
	runCfg.Disable.Complexity = runCfg.Disable.Complexity || ac.noComplexity
	runCfg.Disable.Structure = runCfg.Disable.Structure || ac.noStructure
	runCfg.Disable.Dependency = runCfg.Disable.Dependency || ac.noDependency
	runCfg.Disable.Clones = runCfg.Disable.Clones || ac.noClones
	runCfg.Disable.Coverage = runCfg.Disable.Coverage || ac.noCoverage
	runCfg.CoverageReports = ac.loadCoverageReports(cfg, logger)

	orch := pipeline.New(registry, runCfg)
	orch.Logger = logger
	orch.WireTracing(providers.TracerProvider)

	if analysisMetrics, metricsErr := observability.NewAnalysisMetrics(providers.Meter); metricsErr != nil {
		logger.Warn("analysis metrics unavailable", "error", metricsErr)
	} else {
		orch.Metrics = analysisMetrics
	}

	if red, redErr := observability.NewREDMetrics(providers.Meter); redErr != nil {
		logger.Warn("stage metrics unavailable", "error", redErr)
	} else {
		orch.Red = red
	}

	cachePath := filepath.Join(cfg.Performance.CacheDirectory, "stopmotif.cache")

	if !runCfg.Disable.Clones {
		if loaded, loadErr := clones.Load(cachePath); loadErr == nil {
			orch.StopMotifCache = loaded
		} else if !errors.Is(loadErr, os.ErrNotExist) {
			logger.Debug("stop-motif cache not loaded, starting cold", "path", cachePath, "error", loadErr)
		}
	}

	if ac.metricsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(ac.metricsAddr, providers.MetricsHandler, providers.Tracer, logger)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}
		defer diag.Close()

		logger.Info("diagnostics server listening", "addr", diag.Addr())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !runCfg.Disable.Clones && orch.StopMotifCache != nil {
		if mkErr := os.MkdirAll(cfg.Performance.CacheDirectory, 0o755); mkErr != nil {
			logger.Warn("could not create cache directory", "path", cfg.Performance.CacheDirectory, "error", mkErr)
		} else if saveErr := orch.StopMotifCache.Save(cachePath); saveErr != nil {
			logger.Warn("could not persist stop-motif cache", "path", cachePath, "error", saveErr)
		}
	}

	logger.Info("analysis complete",
		"files", results.Summary.FilesProcessed,
		"entities", results.Summary.EntitiesAnalyzed,
		"candidates", len(results.Candidates),
		"peak_memory", humanize.Bytes(uint64(results.Stats.PeakMemoryBytes)), //nolint:gosec // estimate is always non-negative
	)

	writer, closeFn, err := ac.outputWriter()
	if err != nil {
		return err
	}
	defer closeFn()

	return ac.render(results, writer)
}

// observabilityConfig derives a single run's observability.Config from the
// command's logging flags. Hot-path spans (per-file, per-entity) stay
// suppressed unless --verbose is set, matching how --verbose also lowers
// the log level to debug.
func (ac *AnalyzeCommand) observabilityConfig() observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeCLI

	switch {
	case ac.quiet:
		cfg.LogLevel = slog.LevelError
	case ac.verbose:
		cfg.LogLevel = slog.LevelDebug
		cfg.TraceVerbose = true
	}

	return cfg
}

func (ac *AnalyzeCommand) outputWriter() (io.Writer, func(), error) {
	if ac.out == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(ac.out) //nolint:gosec // path is an operator-supplied CLI flag, not untrusted input
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}

func (ac *AnalyzeCommand) render(results report.AnalysisResults, w io.Writer) error {
	switch ac.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()

		return enc.Encode(results)
	default:
		return render.Render(results, w, ac.noColor || render.NoColor())
	}
}

// buildRunConfig projects a loaded config.Config onto a pipeline.RunConfig,
// starting from pipeline.DefaultRunConfig() and overlaying every section
// that has a dedicated config.To*() projection.
func buildRunConfig(cfg *config.Config, registry *langs.Registry, root string) pipeline.RunConfig {
	runCfg := pipeline.DefaultRunConfig()

	runCfg.Discovery = cfg.Analysis.ToDiscoveryConfig(root, registry.Extensions())
	runCfg.Disable = pipeline.DisableFlags{
		Complexity: cfg.Analysis.Disable.Complexity,
		Structure:  cfg.Analysis.Disable.Structure,
		Dependency: cfg.Analysis.Disable.Dependency,
		Clones:     cfg.Analysis.Disable.Clones,
		Coverage:   cfg.Analysis.Disable.Coverage,
	}
	runCfg.ComplexityThresholds = cfg.Analysis.Complexity.ToComplexityThresholds()
	runCfg.DirectoryLimits = cfg.Analysis.Structure.ToDirectoryLimits()
	runCfg.CloneConfig = cfg.ToCloneConfig()
	runCfg.StopMotifPolicy = cfg.ToRefreshPolicy()
	runCfg.ScoringWeights = cfg.Scoring.ToWeights()
	runCfg.ScoringThresholds = cfg.Scoring.ToThresholds()
	runCfg.NormalizationScheme = cfg.Scoring.ToScheme()

	if runCfg.NormalizationScheme == "bayesian" {
		priors := cfg.Scoring.BayesianPriors.ToBayesianPriors()
		runCfg.BayesianPriors = &priors
	}

	runCfg.Workers = cfg.Performance.Workers
	runCfg.CoverageMergeGapLines = cfg.Coverage.MergeGapLines

	return runCfg
}

// loadCoverageReports reads every coverage report named by
// config.CoverageConfig (explicit paths plus glob matches under each
// search path) and parses each one in its detected format. Reports in an
// unrecognized format, or that fail to parse, are skipped with a logged
// warning rather than failing the run.
func (ac *AnalyzeCommand) loadCoverageReports(cfg *config.Config, logger *slog.Logger) []coverage.FileCoverage {
	if ac.noCoverage || cfg.Analysis.Disable.Coverage {
		return nil
	}

	var paths []string

	paths = append(paths, cfg.Coverage.ExplicitPaths...)

	for _, dir := range cfg.Coverage.SearchPaths {
		for _, pattern := range cfg.Coverage.Patterns {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}

			paths = append(paths, matches...)
		}
	}

	var reports []coverage.FileCoverage

	for _, p := range paths {
		data, err := os.ReadFile(p) //nolint:gosec // path comes from operator-configured search_paths/explicit_paths
		if err != nil {
			logger.Warn("coverage report unreadable", "path", p, "error", err)

			continue
		}

		head := data
		if len(head) > 4096 {
			head = head[:4096]
		}

		var parsed []coverage.FileCoverage

		var parseErr error

		switch coverage.DetectFormat(p, head) {
		case coverage.FormatLCOV:
			parsed, parseErr = coverage.ParseLCOV(bytes.NewReader(data))
		case coverage.FormatCobertura:
			parsed, parseErr = coverage.ParseCobertura(bytes.NewReader(data))
		case coverage.FormatJaCoCo:
			parsed, parseErr = coverage.ParseJaCoCo(bytes.NewReader(data))
		case coverage.FormatIstanbul:
			parsed, parseErr = coverage.ParseIstanbul(bytes.NewReader(data))
		case coverage.FormatCoveragePy:
			parsed, parseErr = coverage.ParseCoveragePy(bytes.NewReader(data))
		default:
			logger.Warn("coverage report format not recognized", "path", p)

			continue
		}

		if parseErr != nil {
			logger.Warn("coverage report unparsable", "path", p, "error", parseErr)

			continue
		}

		reports = append(reports, parsed...)
	}

	return reports
}
