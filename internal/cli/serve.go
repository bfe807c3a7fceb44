package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wflens/internal/server"
	"github.com/matzehuels/wflens/pkg/render"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen   string
		storeURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve log ingestion and session charts over HTTP",
		Long: `Serve the HTTP API.

Workflow runtimes POST log entries to /submit; clients read session listings,
running-task charts and duration distributions. Without a configured log
store entries are kept in memory and lost on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen, storeURI, noCache)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default: from config, :8080)")
	cmd.Flags().StringVar(&storeURI, "store", "", "log store URI (default: from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, listen, storeURI string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Server.Listen
	}

	st, err := c.openStore(ctx, storeURI)
	if err != nil {
		return err
	}
	defer st.Close(context.WithoutCancel(ctx))

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(st, runner, server.Options{
		Addr:         listen,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		Palette:      cfg.Render.Palette,
		ChartSize:    render.Size{Width: cfg.Render.Width, Height: cfg.Render.Height},
		Logger:       c.Logger,
	})
	return srv.ListenAndServe(ctx)
}
