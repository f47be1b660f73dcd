package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markviz/markviz/pkg/server"
)

// serveCommand creates the serve command for running the preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP preview server",
		Long: `Run the HTTP preview server.

The server exposes POST /render for one-shot rendering and a /v1/diagrams
API for saving diagrams behind stable links. Configuration is read from a
TOML file (--config) with MARKVIZ_* environment overrides; --addr wins
over both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, configPath)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, configPath string) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	srv, err := server.NewFromConfig(ctx, cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer func() {
		if cerr := srv.Close(context.Background()); cerr != nil {
			c.Logger.Warn("server close", "err", cerr)
		}
	}()

	printInfo("Preview server listening on %s", cfg.Addr)
	return srv.ListenAndServe(ctx, cfg)
}
