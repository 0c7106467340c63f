package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bericht/internal/api"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file with the configured Whisper service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer file.Close()

			result, err := newWhisperClient(cfg).Transcribe(cmd.Context(), file, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromTranscription(result))
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full transcription as JSON")
	return cmd
}
