package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wflens/pkg/logstore"
)

// sessionsCommand creates the sessions command for listing logged sessions.
func (c *CLI) sessionsCommand() *cobra.Command {
	var (
		storeURI string
		host     string
		pick     bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List logged workflow sessions",
		Long: `List the workflow sessions in the log store, newest first.

With --pick the sessions are shown in an interactive list and the chosen
session's statistics are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSessions(cmd.Context(), storeURI, host, pick)
		},
	}

	cmd.Flags().StringVar(&storeURI, "store", "", "log store URI (default: from config)")
	cmd.Flags().StringVar(&host, "host", "", "only sessions with entries from this host")
	cmd.Flags().BoolVar(&pick, "pick", false, "pick a session interactively")

	return cmd
}

func (c *CLI) runSessions(ctx context.Context, storeURI, host string, pick bool) error {
	st, err := c.openStore(ctx, storeURI)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	sessions, err := st.Sessions(ctx, logstore.SessionFilter{Host: host})
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		printInfo("No sessions found")
		return nil
	}

	if !pick {
		printTable([]string{"Session", "Entries", "Started"}, sessionRows(sessions))
		return nil
	}

	final, err := tea.NewProgram(NewSessionListModel(sessions), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("session picker: %w", err)
	}
	m, ok := final.(SessionListModel)
	if !ok || m.Selected == nil {
		return nil
	}
	return c.printSession(ctx, st, m.Selected.ID)
}

func sessionRows(sessions []logstore.SessionInfo) [][]string {
	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		started := "—"
		if s.TStart > 0 {
			started = s.Started().Format("2006-01-02 15:04:05")
		}
		rows[i] = []string{s.ID, fmt.Sprint(s.NumLogEntries), started}
	}
	return rows
}

// printSession prints the statistics of one session and its task types.
func (c *CLI) printSession(ctx context.Context, st logstore.Store, id string) error {
	stats, err := st.SessionStats(ctx, id)
	if err != nil {
		return err
	}
	tasks, err := st.TaskTypeStats(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, StyleTitle.Render(id))
	printKeyValue("entries", fmt.Sprint(stats.Entries))
	printKeyValue("invocations", fmt.Sprint(stats.Invocations))
	printKeyValue("mean", fmt.Sprintf("%.2fs ± %.2fs", stats.AvgDuration, stats.SDDuration))
	printKeyValue("longest", fmt.Sprintf("%.2fs", stats.MaxDuration))
	printKeyValue("total", fmt.Sprintf("%.2fs", stats.SumDuration))
	printNewline()

	if len(tasks) > 0 {
		rows := make([][]string, len(tasks))
		for i, t := range tasks {
			rows[i] = []string{
				t.TaskType,
				fmt.Sprint(t.Invocations),
				fmt.Sprintf("%.2f", t.MinDuration),
				fmt.Sprintf("%.2f", t.AvgDuration),
				fmt.Sprintf("%.2f", t.MaxDuration),
			}
		}
		printTable([]string{"Task type", "Invocations", "Min [s]", "Mean [s]", "Max [s]"}, rows)
		printNewline()
	}
	printNextStep("Chart", "wflens load "+id)
	return nil
}
