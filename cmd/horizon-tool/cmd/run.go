package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/internal/replay"
	"github.com/carrotIndustries/horizon/internal/script"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

var (
	runKind       string
	runPool       string
	runDoc        string
	runSave       bool
	runNoSettings bool
	runMetrics    bool
	runTrace      bool
)

var runCmd = &cobra.Command{
	Use:   "run <script-glob>...",
	Short: "Replay session scripts against the tool engine",
	Long: `Run parses each script matched by the given patterns and replays it in a
fresh editor. Patterns support ** (doublestar). With --doc the session starts
from the stored document; with --save a passing session is written back, so
later scripts see the result of earlier ones.

Examples:
  horizon-tool run sessions/rect.hz
  horizon-tool run --kind schematic 'sessions/schematic/**/*.hz'
  horizon-tool run --pool pool.json --doc main --save place.hz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScripts,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runKind, "kind", "k", string(core.EditorBoard), "editor kind (schematic, board, package, padstack)")
	runCmd.Flags().StringVar(&runPool, "pool", "", "JSON pool file with padstacks and parts")
	runCmd.Flags().StringVar(&runDoc, "doc", "", "document to load from the repository")
	runCmd.Flags().BoolVar(&runSave, "save", false, "save the document after each passing script")
	runCmd.Flags().BoolVar(&runNoSettings, "no-settings", false, "do not load or store tool settings")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "print operation counters after the run")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "write JSON trace records to stderr")
}

func runScripts(cmd *cobra.Command, patterns []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())

	kind, err := core.ParseEditorKind(runKind)
	if err != nil {
		return err
	}
	if runSave && runDoc == "" {
		return fmt.Errorf("--save requires --doc")
	}
	paths, err := expandScripts(patterns)
	if err != nil {
		return err
	}
	pool, err := loadPool(runPool)
	if err != nil {
		return err
	}
	repo, err := openRepository(runDoc)
	if err != nil {
		return err
	}
	if repo != nil {
		defer func() { _ = repo.Close() }()
	}

	opts := []core.Option{core.WithLogger(logger), core.WithPool(pool)}
	var flush func(context.Context) (int, error)
	if !runNoSettings {
		st, err := openSettings(ctx, logger)
		if err != nil {
			return err
		}
		opts = append(opts, core.WithSettings(st))
		flush = st.Flush
	}
	var reg *prometheus.Registry
	if runMetrics {
		reg = prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			return err
		}
		opts = append(opts, core.WithMetrics(rec))
	}
	if runTrace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
	}

	failed := 0
	for _, path := range paths {
		rep, err := runScript(ctx, path, kind, repo, logger, opts)
		printResult(out, path, rep, err)
		if err != nil {
			failed++
		}
	}

	if flush != nil {
		n, err := flush(ctx)
		if err != nil {
			return fmt.Errorf("store tool settings: %w", err)
		}
		logger.Debug("tool settings stored", "documents", n)
	}
	if reg != nil {
		if err := printMetrics(out, reg); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(paths))
	}
	fmt.Fprintf(out, "%s %d scripts passed\n", color.GreenString("ok"), len(paths))
	return nil
}

func runScript(ctx context.Context, path string, kind core.EditorKind, repo domain.DocumentRepository, logger core.Logger, opts []core.Option) (replay.Report, error) {
	s, err := script.ParseFile(path)
	if err != nil {
		return replay.Report{}, err
	}
	c, err := newSession(ctx, kind, repo, runDoc, opts...)
	if err != nil {
		return replay.Report{}, err
	}
	rep, err := replay.NewRunner(c, nil, logger).Run(ctx, s)
	if err != nil {
		return rep, err
	}
	if runSave {
		if rep.ActiveTool != core.ToolNone {
			return rep, fmt.Errorf("cannot save: tool %s still active", rep.ActiveTool)
		}
		if err := c.Save(ctx, repo, runDoc); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// expandScripts resolves every pattern to files, keeping the order of the
// patterns and dropping duplicates. A pattern without matches is an error.
func expandScripts(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no scripts match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func printResult(w io.Writer, path string, rep replay.Report, err error) {
	if err != nil {
		fmt.Fprintf(w, "%s %s\n    %v\n", color.RedString("FAIL"), path, err)
	} else {
		fmt.Fprintf(w, "%s %s %s\n", color.GreenString("PASS"), path,
			color.HiBlackString("(%d statements, %d expectations, history %d)", rep.Statements, rep.Expectations, rep.History))
	}
	for _, msg := range rep.Flashes {
		fmt.Fprintf(w, "    %s %s\n", color.YellowString("flash:"), msg)
	}
}

// printMetrics writes one line per counter series and the sample count of
// each histogram series.
func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintln(w, color.CyanString("metrics"))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(w, "  %s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
