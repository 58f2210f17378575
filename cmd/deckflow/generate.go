package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/deckflow/pkg/deckflow/config"
	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
	"github.com/randalmurphal/deckflow/pkg/deckflow/llm"
	"github.com/randalmurphal/deckflow/pkg/deckflow/pipeline"
	"github.com/randalmurphal/deckflow/pkg/deckflow/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a presentation for a topic",
	Long: `Generate runs the full pipeline for one topic and prints the result
as JSON. The user is registered in the local database on first use.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("topic", "", "Presentation topic (required)")
	generateCmd.Flags().String("context", "", "Additional context to steer generation")
	generateCmd.Flags().String("theme", "", "Visual theme (default \"light\")")
	generateCmd.Flags().String("user", "local", "User ID to own the project")
	generateCmd.Flags().String("project", "", "Existing project ID to regenerate into")
	generateCmd.Flags().String("provider", "", "Model provider: openai or claude (overrides config)")
	generateCmd.Flags().String("model", "", "Model name (overrides config)")
	generateCmd.Flags().Bool("iterative", false, "Write content one slide per model call")
	generateCmd.Flags().Bool("quiet", false, "Suppress progress output")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		settings.Provider = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		settings.Model = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		settings.DatabasePath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		settings.LogLevel = v
	}
	if v, _ := cmd.Flags().GetBool("iterative"); v {
		settings.IterativeContent = true
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger := newLogger(settings.LogLevel)

	client, err := newClient(settings)
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	userID, _ := cmd.Flags().GetString("user")
	if _, err := s.CreateUser(cmd.Context(), userID); err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	retry := dferrors.DefaultRetry
	retry.MaxAttempts = settings.Retry.MaxAttempts
	if settings.Retry.InitialBackoff > 0 {
		retry.InitialBackoff = settings.Retry.InitialBackoff
	}
	if settings.Retry.MaxBackoff > 0 {
		retry.MaxBackoff = settings.Retry.MaxBackoff
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	cfg := pipeline.Config{
		Store:            s,
		LLM:              client,
		Logger:           logger,
		IterativeContent: settings.IterativeContent,
		Retry:            retry,
	}
	if !quiet {
		cfg.OnProgress = func(step string, percent int) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, step)
		}
	}

	g, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	topic, _ := cmd.Flags().GetString("topic")
	extra, _ := cmd.Flags().GetString("context")
	theme, _ := cmd.Flags().GetString("theme")
	projectID, _ := cmd.Flags().GetString("project")

	result := g.Generate(cmd.Context(), pipeline.Request{
		UserID:            userID,
		Topic:             topic,
		AdditionalContext: extra,
		Theme:             theme,
		ProjectID:         projectID,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("generation failed: %s", result.Error)
	}
	return nil
}

// newClient builds the model client selected by the settings.
func newClient(s config.Settings) (llm.Client, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", s.Provider)
	}
	switch s.Provider {
	case "claude":
		return llm.NewClaudeClient(llm.ClaudeConfig{
			APIKey:    s.APIKey,
			Model:     s.Model,
			MaxTokens: s.MaxTokens,
		})
	default:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:    s.APIKey,
			BaseURL:   s.BaseURL,
			Model:     s.Model,
			MaxTokens: s.MaxTokens,
		})
	}
}

// newLogger builds a text slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
