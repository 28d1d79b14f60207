package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tryon-studio/internal/app"
	"tryon-studio/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tryon",
		Short:         "Virtual try-on studio backed by a Gemini image model",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().String("log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(),
		newComposeCmd(),
		newEditCmd(),
		newEncodeCmd(),
	)
	return root
}

// options maps the persistent flags, and --port where a command defines it,
// onto the bootstrap options.
func options(cmd *cobra.Command) app.Options {
	opts := app.Options{LogOutput: cmd.ErrOrStderr()}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.LogLevel, _ = cmd.Flags().GetString("log-level")
	if cmd.Flags().Lookup("port") != nil {
		opts.Port, _ = cmd.Flags().GetInt("port")
	}
	return opts
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return app.LoadConfig(options(cmd))
}

// setup loads configuration and wires the components. Logs go to stderr so
// stdout stays free for command output.
func setup(cmd *cobra.Command) (*app.Components, error) {
	return app.Bootstrap(options(cmd))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func syncLogger(logger *zap.Logger) {
	_ = logger.Sync()
}
