package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wflens/pkg/pipeline"
	"github.com/matzehuels/wflens/pkg/render"
)

// chartFlags are the output flags shared by the chart commands.
type chartFlags struct {
	format  string
	output  string
	width   float64
	height  float64
	noCache bool
	store   string
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "svg", "output format: svg, png, pdf, json")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file")
	cmd.Flags().Float64Var(&f.width, "width", 0, "chart width in inches (default: from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "chart height in inches (default: from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.store, "store", "", "log store URI (default: from config)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeValues(chartFormats...))
}

// size returns the chart size, falling back to the configured one.
func (f *chartFlags) size(c *CLI) (render.Size, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return render.Size{}, err
	}
	s := render.Size{Width: cfg.Render.Width, Height: cfg.Render.Height}
	if f.width > 0 {
		s.Width = f.width
	}
	if f.height > 0 {
		s.Height = f.height
	}
	return s, nil
}

// loadCommand creates the load command for stacked running-task charts.
func (c *CLI) loadCommand() *cobra.Command {
	var (
		flags chartFlags
		order string
		pal   string
		since float64
	)

	cmd := &cobra.Command{
		Use:   "load <session>",
		Short: "Chart the running tasks of a session over time",
		Long: `Chart the number of running invocations of a session over time.

Each task type is drawn as a band stacked on the bands below it, so the top
of the chart is the total number of running invocations. Host load averages
logged with the invocations are drawn as lines.

The stacking order is given with --order, bottom first; task types not listed
are stacked on top in the order they first appear in the log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := pipeline.SessionView{
				SessionID: args[0],
				Order:     parseList(order),
				Palette:   parseList(pal),
				Since:     since,
			}
			return c.runLoad(cmd.Context(), view, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&order, "order", "", "comma-separated stacking order, bottom first")
	cmd.Flags().StringVar(&pal, "palette", "", "comma-separated colours assigned to task types in first-seen order")
	cmd.Flags().Float64Var(&since, "since", 0, "only entries logged after this unix time")

	return cmd
}

func (c *CLI) runLoad(ctx context.Context, view pipeline.SessionView, flags chartFlags) error {
	if err := view.Validate(); err != nil {
		return err
	}
	f, err := render.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	size, err := flags.size(c)
	if err != nil {
		return err
	}
	if len(view.Palette) == 0 {
		cfg, _ := c.loadConfig()
		view.Palette = cfg.Render.Palette
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

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Reading session %s...", view.SessionID))
	spinner.Start()
	load, err := runner.SessionLoad(ctx, st, view)
	if err != nil {
		spinner.StopWithError("Reading session failed")
		return err
	}
	data, err := runner.RenderLoad(ctx, load, f, size)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	path := flags.output
	if path == "" {
		path = view.SessionID + f.Ext()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Charted %d task types from %d entries", len(load.Series.Series), load.Entries)
	printFile(path)
	reportLoad(load)
	return nil
}

// reportLoad prints what the reconstruction had to skip.
func reportLoad(load *pipeline.LoadResult) {
	if load.Dropped > 0 {
		printWarning("%d entries dropped: no usable timestamp or status", load.Dropped)
	}
	if load.Series.Clamped > 0 || load.Unmatched > 0 {
		printWarning("%d stops without a running invocation, %d unmatched entries", load.Series.Clamped, load.Unmatched)
	}
	if load.Ignored > 0 {
		printDetail("%d entries ignored", load.Ignored)
	}
	printStats(0, 0, load.CacheHit)
}
