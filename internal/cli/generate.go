package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/wflens/pkg/generator"
	"github.com/matzehuels/wflens/pkg/logstore"
)

// generateCommand creates the generate command for synthetic workflow logs.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		cfg      generator.Config
		seed     uint64
		session  string
		output   string
		storeURI string
		insert   bool
		replay   bool
		speed    float64
	)
	defaults := generator.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic workflow log",
		Long: `Generate a synthetic workflow log for demos and load tests.

Tasks of --types types are given normally distributed run times and uniform
start times within --duration seconds. Every task yields a start and a stop
entry. Entries are written as JSON lines or inserted into the log store with
--insert; --replay inserts them in real time, sped up by --speed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg = mergeGenerator(fc.Generator, cfg, cmd.Flags())
			return c.runGenerate(cmd.Context(), cfg, seed, session, output, storeURI, insert || replay, replay, speed)
		},
	}

	cmd.Flags().IntVar(&cfg.TaskTypes, "types", defaults.TaskTypes, "number of task types")
	cmd.Flags().IntVar(&cfg.Count, "count", defaults.Count, "number of tasks")
	cmd.Flags().Float64Var(&cfg.AvgExec, "avg", defaults.AvgExec, "mean run time in seconds")
	cmd.Flags().Float64Var(&cfg.VarExec, "var", defaults.VarExec, "run time variance in seconds squared")
	cmd.Flags().Float64Var(&cfg.Duration, "duration", defaults.Duration, "length of the schedule in seconds")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVar(&session, "session", "", "session id (default: random)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&insert, "insert", false, "insert the entries into the log store")
	cmd.Flags().StringVar(&storeURI, "store", "", "log store URI (default: from config)")
	cmd.Flags().BoolVar(&replay, "replay", false, "insert entries in real time")
	cmd.Flags().Float64Var(&speed, "speed", 1, "replay speed-up factor")

	return cmd
}

// mergeGenerator starts from the configured workload and applies every flag
// set on the command line.
func mergeGenerator(file, flags generator.Config, fs *pflag.FlagSet) generator.Config {
	out := file
	if fs.Changed("types") {
		out.TaskTypes = flags.TaskTypes
	}
	if fs.Changed("count") {
		out.Count = flags.Count
	}
	if fs.Changed("avg") {
		out.AvgExec = flags.AvgExec
	}
	if fs.Changed("var") {
		out.VarExec = flags.VarExec
	}
	if fs.Changed("duration") {
		out.Duration = flags.Duration
	}
	return out
}

func (c *CLI) runGenerate(ctx context.Context, cfg generator.Config, seed uint64, session, output, storeURI string, insert, replay bool, speed float64) error {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	steps, err := generator.Schedule(cfg, rand.New(rand.NewPCG(seed, seed>>1)))
	if err != nil {
		return err
	}
	if session == "" {
		session = generator.NewSessionID()
	}
	entries := generator.Entries(steps, session, float64(time.Now().UnixMilli())/1000)
	c.Logger.Info("generated log", "session", session, "tasks", cfg.Count, "types", cfg.TaskTypes, "entries", len(entries), "seed", seed)

	if !insert {
		return withOutput(output, func(w io.Writer) error {
			return writeEntries(w, entries)
		})
	}
	if !replay {
		return c.insertEntries(ctx, storeURI, entries)
	}

	st, err := c.openWritableStore(ctx, storeURI)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	spinner := newSpinnerWithContext(ctx, "Replaying "+session+"...")
	spinner.Start()
	n := 0
	err = generator.Replay(ctx, entries, speed, func(ctx context.Context, e logstore.Entry) error {
		n++
		spinner.Update(replayStatus(session, n, len(entries)))
		return st.Insert(ctx, e)
	})
	if err != nil {
		spinner.StopWithError("Replay stopped")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Replayed %d entries into session %s", n, session))
	printNextStep("Chart", "wflens load "+session)
	return nil
}

func replayStatus(session string, n, total int) string {
	return fmt.Sprintf("Replaying %s (%d/%d)", session, n, total)
}
