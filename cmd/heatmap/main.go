package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/app"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/config"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/logging"
)

const appName = "heatmap"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

// errConfig marks failures that happen before logging is available.
var errConfig = errors.New("config error")

type cli struct {
	cfg    config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, errConfig):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	default:
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Monthly global land-surface temperature heatmap",
		Long:          "Serves the monthly global temperature anomaly dataset as an interactive heatmap.\nWith no subcommand it runs the HTTP server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// render may write the chart to stdout, so its logs go to stderr.
			logOut := io.Writer(os.Stdout)
			if cmd.Name() == "render" {
				logOut = os.Stderr
			}
			return c.init(logOut)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}

	root.SetOut(stdout)
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.serve(cmd.Context())
			},
		},
		newRenderCmd(c),
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Migrate(cmd.Context(), c.cfg, c.logger)
			},
		},
	)
	return root
}

func newRenderCmd(c *cli) *cobra.Command {
	var opts app.RenderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch the dataset once and write the chart to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Render(cmd.Context(), c.cfg, version, opts, c.logger)
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", app.FormatHTML, "output format: html or svg")
	return cmd
}

func (c *cli) init(logOut io.Writer) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	c.cfg = cfg
	c.logger = logging.NewWithWriter(logOut, cfg, version, appName)
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) serve(ctx context.Context) error {
	c.logger.Info("starting",
		"app", appName,
		"version", version,
		"env", c.cfg.AppEnv,
		"log_level", c.cfg.LogLevel.String(),
	)
	err := app.Run(ctx, c.cfg, version, c.logger)
	c.logger.Info("shutting down")
	return err
}
