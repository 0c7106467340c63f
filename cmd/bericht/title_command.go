package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bericht/internal/api"
)

func newTitleCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "title [text...]",
		Short: "Generate a title for text (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no text given")
			}

			generated, err := newTitleService(cfg).Generate(cmd.Context(), text)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.TitleResponse{Title: generated})
			}
			fmt.Fprintln(cmd.OutOrStdout(), generated)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the response as JSON")
	return cmd
}
