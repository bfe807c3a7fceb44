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
)

// daxCommand creates the dax command for laying out workflow files.
func (c *CLI) daxCommand() *cobra.Command {
	var (
		formats string
		outDir  string
		noCache bool
		pal     string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "dax <dir|file>",
		Short: "Lay out Pegasus workflow files as layered graphs",
		Long: `Lay out Pegasus workflow files (DAX) as layered graphs.

Every job becomes a node. Jobs without parents form the first row, and each
further row holds the jobs whose parents all sit in earlier rows. Given a
directory, every *.dax and *.dax.xml file in it is processed; files that fail
are reported and skipped.

Output is written next to each input unless --out names a directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFormats(formats, render.SVG)
			if err != nil {
				return err
			}
			opts.Formats = fs
			opts.Refresh = noCache
			opts.Palette = parseList(pal)
			return c.runDAX(cmd.Context(), args[0], outDir, opts)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats: svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: next to each input)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.VizType, "viz", "t", pipeline.DefaultVizType, "visualization type: plot (default), nodelink")
	cmd.Flags().Float64Var(&opts.Dist, "dist", 0, "row and column spacing (default 8)")
	cmd.Flags().Float64Var(&opts.HalfWidth, "half-width", 0, "clip rows to [-w, w] (default 50)")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "chart width in inches (default 10)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "add job ids and positions to node-link labels")
	cmd.Flags().StringVar(&pal, "palette", "", "comma-separated colours assigned to task types in row order")

	_ = cmd.RegisterFlagCompletionFunc("format", completeValues(layoutFormats...))
	_ = cmd.RegisterFlagCompletionFunc("viz", completeValues(vizTypes...))

	return cmd
}

// runDAX lays out every workflow under input and writes its artifacts.
func (c *CLI) runDAX(ctx context.Context, input, outDir string, opts pipeline.Options) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.Dist <= 0 {
		opts.Dist = cfg.Layout.Dist
	}
	if opts.HalfWidth <= 0 {
		opts.HalfWidth = cfg.Layout.HalfWidth
	}
	if len(opts.Palette) == 0 {
		opts.Palette = cfg.Render.Palette
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.Refresh)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %s...", input))
	spinner.Start()

	var written []string
	var lastStats pipeline.LayoutStats
	var lastCached bool
	sum, err := runner.LayoutDir(ctx, input, opts, func(lr *pipeline.LayoutResult) error {
		spinner.Update(fmt.Sprintf("Laid out %s", filepath.Base(lr.Source)))
		for _, f := range opts.Formats {
			path := artifactPath(lr.Source, outDir, f)
			if err := os.WriteFile(path, lr.Artifacts[f], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			written = append(written, path)
		}
		lastStats, lastCached = lr.Stats, lr.CacheHit
		return nil
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if sum.OK > 0 {
		printSuccess("Laid out %d of %d workflows", sum.OK, sum.Total)
		for _, path := range written {
			printFile(path)
		}
		if sum.Total == 1 {
			printStats(lastStats.Jobs, lastStats.Edges, lastCached)
		}
	}
	for _, fe := range sum.Failed {
		printError("%s: %v", fe.Path, fe.Err)
	}
	prog.done(fmt.Sprintf("Processed %d workflows", sum.Total))

	if sum.Total > 0 && sum.OK == 0 {
		return fmt.Errorf("no workflow in %s could be laid out", input)
	}
	return nil
}

// artifactPath names the output file for a workflow and format:
// genome.dax becomes genome.svg.
func artifactPath(source, outDir string, f render.Format) string {
	base := filepath.Base(source)
	for _, suffix := range []string{".dax.xml", ".dax", ".xml"} {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, base+f.Ext())
}
