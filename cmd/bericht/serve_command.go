package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bericht/internal/serverrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			err = serverrun.Run(cmd.Context(), cfg, serverrun.Options{
				Version:   version,
				LogLevel:  logLevel,
				Preflight: !skipPreflight,
				Ready: func(addr string) {
					fmt.Fprintf(out, "Listening on http://%s\n", addr)
				},
			})
			if errors.Is(err, serverrun.ErrAlreadyRunning) {
				return fmt.Errorf("another bericht server holds %s", cfg.LockPath())
			}
			return err
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not probe upstream services after startup")
	return cmd
}
