package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wflens/pkg/convert"
	"github.com/matzehuels/wflens/pkg/dax"
	"github.com/matzehuels/wflens/pkg/logstore"
	"github.com/matzehuels/wflens/pkg/pipeline"
)

// convertCommand groups the format conversion subcommands.
func (c *CLI) convertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert Pegasus run records and tables",
		Long: `Convert the provenance of Pegasus workflow runs.

A run directory holds the stampede database and one invocation record per
executed job. csv and json flatten these records; join merges CSV tables of
several runs; events turns a table or a run into workflow log entries.`,
	}

	cmd.AddCommand(c.convertCSVCommand())
	cmd.AddCommand(c.convertJSONCommand())
	cmd.AddCommand(c.convertJoinCommand())
	cmd.AddCommand(c.convertEventsCommand())

	return cmd
}

// runFlags select how a run directory is read.
type runFlags struct {
	daxPath  string
	mainOnly bool
	output   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.daxPath, "dax", "", "workflow file declaring the jobs' data files")
	cmd.Flags().BoolVar(&f.mainOnly, "main-only", true, "leave out auxiliary jobs (stage-in, cleanup)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
}

// collect reads the records of a run directory.
func (c *CLI) collect(ctx context.Context, runDir string, f runFlags) (*pipeline.RunRecords, error) {
	opts := pipeline.CollectOptions{MainJobsOnly: f.mainOnly}
	if f.daxPath != "" {
		wf, err := dax.ParseFile(f.daxPath)
		if err != nil {
			return nil, err
		}
		opts.Workflow = wf
	}
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Reading %s...", runDir))
	spinner.Start()
	recs, err := runner.CollectRun(ctx, runDir, opts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	if len(recs.Unreadable) > 0 {
		c.Logger.Warn("invocation records could not be read", "count", len(recs.Unreadable))
	}
	c.Logger.Info("read run", "dir", runDir, "records", len(recs.Records), "transformations", len(recs.Transformations), "elapsed", recs.Elapsed.Round(time.Millisecond))
	return recs, nil
}

// withOutput calls write with the output file, or stdout when path is
// empty. Status lines are only printed for files so stdout stays clean.
func withOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printFile(path)
	return nil
}

func (c *CLI) convertCSVCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "csv <run-dir>",
		Short: "Flatten the invocation records of a run into a CSV table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := c.collect(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			return withOutput(flags.output, func(w io.Writer) error {
				return convert.WriteCSV(w, recs.RunGroup, recs.Run, recs.Records)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) convertJSONCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "json <run-dir>",
		Short: "Write the invocation records of a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := c.collect(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			return withOutput(flags.output, func(w io.Writer) error {
				return convert.WriteJSON(w, recs.RunGroup, recs.Run, recs.Records)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) convertJoinCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "join <table.csv>...",
		Short: "Merge CSV tables with different columns into one",
		Long: `Merge CSV tables into one table over the union of their columns.

Columns keep the order of the first table they appear in. Cells of columns a
table does not have are filled with NA.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readers := make([]io.Reader, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				defer f.Close()
				readers = append(readers, f)
			}
			return withOutput(output, func(w io.Writer) error {
				return convert.JoinCSV(w, readers...)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) convertEventsCommand() *cobra.Command {
	var (
		flags    runFlags
		session  string
		storeURI string
		insert   bool
	)
	cmd := &cobra.Command{
		Use:   "events <table.csv|run-dir>",
		Short: "Turn a CSV table or a run into workflow log entries",
		Long: `Turn a CSV table or a run directory into workflow log entries.

Every invocation becomes a start and a stop entry. From a table, the run
column names the session; from a run directory, --session does (default: the
run directory name). Entries are written as JSON lines, or inserted into the
log store with --insert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, skipped, err := c.events(ctx, args[0], session, flags)
			if err != nil {
				return err
			}
			if skipped > 0 {
				c.Logger.Warn("skipped invocations without start or run time", "count", skipped)
			}
			if insert {
				return c.insertEntries(ctx, storeURI, entries)
			}
			return withOutput(flags.output, func(w io.Writer) error {
				return writeEntries(w, entries)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&session, "session", "", "session id for entries from a run directory")
	cmd.Flags().BoolVar(&insert, "insert", false, "insert the entries into the log store")
	cmd.Flags().StringVar(&storeURI, "store", "", "log store URI (default: from config)")
	return cmd
}

func (c *CLI) events(ctx context.Context, input, session string, flags runFlags) ([]logstore.Entry, int, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", input, err)
	}
	if !info.IsDir() {
		f, err := os.Open(input)
		if err != nil {
			return nil, 0, err
		}
		defer f.Close()
		return convert.EventsFromCSV(f)
	}
	recs, err := c.collect(ctx, input, flags)
	if err != nil {
		return nil, 0, err
	}
	if session == "" {
		session = recs.Run
	}
	entries, skipped := convert.CF20Events(recs.Records, session)
	return entries, skipped, nil
}

// writeEntries writes one JSON object per line.
func writeEntries(w io.Writer, entries []logstore.Entry) error {
	enc := json.NewEncoder(w)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) insertEntries(ctx context.Context, storeURI string, entries []logstore.Entry) error {
	st, err := c.openWritableStore(ctx, storeURI)
	if err != nil {
		return err
	}
	defer st.Close(ctx)
	if err := st.Insert(ctx, entries...); err != nil {
		return err
	}
	printSuccess("Inserted %d entries", len(entries))
	return nil
}
