package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wflens/pkg/pipeline"
	"github.com/matzehuels/wflens/pkg/render"
	"github.com/matzehuels/wflens/pkg/render/sink"
)

// durationsCommand creates the durations command for per-task CDF charts.
func (c *CLI) durationsCommand() *cobra.Command {
	var (
		flags    chartFlags
		sessions string
		task     string
		minCount int
	)

	cmd := &cobra.Command{
		Use:   "durations",
		Short: "Chart the run time distribution of every task type",
		Long: `Chart the distribution of finished invocation run times per task type.

Each chart shows the empirical CDF of one task type with its quartiles and a
fitted log-normal reference curve. Durations are shown in seconds, minutes or
hours depending on their mean.

Without --task one chart per task type is written to the --output directory
(default: the current directory). With --format json all distributions are
written to a single document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDurations(cmd.Context(), parseList(sessions), task, minCount, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sessions, "session", "", "comma-separated sessions to include (default: all)")
	cmd.Flags().StringVar(&task, "task", "", "only chart this task type")
	cmd.Flags().IntVar(&minCount, "min", pipeline.DefaultMinSamples, "minimum finished invocations per task type")

	return cmd
}

func (c *CLI) runDurations(ctx context.Context, sessions []string, task string, minSamples int, flags chartFlags) error {
	f, err := render.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	size, err := flags.size(c)
	if err != nil {
		return err
	}

	st, err := c.openStore(ctx, flags.store)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Durations(ctx, st, sessions, minSamples)
	if err != nil {
		return err
	}
	if len(res.Order) == 0 {
		printInfo("No task type has %d or more finished invocations", minSamples)
		return nil
	}

	if f == render.JSON && task == "" {
		data, err := sink.RenderDurationsJSON(res.Tasks)
		if err != nil {
			return err
		}
		path := flags.output
		if path == "" {
			path = "durations.json"
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Summarized %d task types", len(res.Order))
		printFile(path)
		return nil
	}

	tasks := res.Order
	if task != "" {
		tasks = []string{task}
	}
	dir := flags.output
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	var written []string
	for _, tt := range tasks {
		data, err := runner.RenderDurations(ctx, res, tt, f, size)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fileSafe(tt)+f.Ext())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Charted %d task types", len(written))
	for _, path := range written {
		printFile(path)
	}
	printStats(0, 0, res.CacheHit)
	prog.done(fmt.Sprintf("Charted durations of %d task types", len(written)))
	return nil
}

// fileSafe maps a task type such as "genome::map:1.0" to a file name stem.
func fileSafe(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	if s = strings.Trim(s, "._"); s == "" {
		return "task"
	}
	return s
}
