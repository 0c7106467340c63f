package main

import (
	"bericht/internal/config"
	"bericht/internal/logging"
	"bericht/internal/services/llm"
	"bericht/internal/services/whisper"
	"bericht/internal/title"
)

func newTitleService(cfg *config.Config) *title.Service {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return title.NewService(client, logging.NewNop())
}

func newWhisperClient(cfg *config.Config) *whisper.Client {
	return whisper.NewClient(whisper.Config{
		BaseURL:        cfg.Whisper.BaseURL,
		TimeoutSeconds: cfg.Whisper.TimeoutSeconds,
	})
}
