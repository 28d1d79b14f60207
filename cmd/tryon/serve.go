package main

import (
	"github.com/spf13/cobra"

	"tryon-studio/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web studio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(c.Logger)
			defer c.Close()
			return app.RunServer(cmd.Context(), c)
		},
	}
	cmd.Flags().Int("port", 0, "listen port (overrides config and PORT)")
	return cmd
}
