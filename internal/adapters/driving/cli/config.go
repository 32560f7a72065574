package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or change configuration",
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show the effective configuration",
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	Args:        cobra.NoArgs,
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one configuration key",
	Long: `Validates and stores one dotted configuration key, e.g.

  athena config set retrieval.max_chars 8000
  athena config set embedding.provider openai`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	Args:        cobra.ExactArgs(2),
	RunE:        runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List recognised configuration keys",
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	Args:        cobra.NoArgs,
	RunE:        runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, settings)
	}

	cmd.Printf("Configuration: %s\n", settingsService.Path())
	cmd.Println()

	cmd.Println("[Policies]")
	cmd.Printf("  Directory: %s\n", settings.PolicyDir)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Printf("  Virtual page chars: %d\n", settings.Chunker.VirtualPageChars)
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider)
	cmd.Printf("  Model: %s\n", orDefault(e.Model))
	cmd.Printf("  Base URL: %s\n", orDefault(e.BaseURL))
	cmd.Printf("  API key: %s\n", describeKeyEnv(e.APIKeyEnv))
	cmd.Printf("  Timeout: %s\n", e.Timeout)
	if e.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.2f/s (burst %d)\n", e.RequestsPerSecond, e.Burst)
	} else {
		cmd.Println("  Rate limit: none")
	}
	cmd.Printf("  Cache: %s\n", e.Cache)
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  K: %d\n", r.K)
	cmd.Printf("  Max chars: %d\n", r.MaxChars)
	cmd.Printf("  Max per source: %d\n", r.MaxPerSource)
	cmd.Printf("  Dominance: threshold %.2f, margin %.2f\n", r.DominanceThreshold, r.DominanceMargin)
	cmd.Printf("  Max preferred sources: %d\n", r.MaxPreferredSources)
	cmd.Printf("  Summary: %d extra pages, %d per source\n", r.SummaryExtraPages, r.SummaryMinPerSource)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Interval: %s\n", settings.Ingest.Interval)
	cmd.Println()

	l := settings.LLM
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", l.Provider)
	cmd.Printf("  Model: %s\n", orDefault(l.Model))
	cmd.Printf("  Base URL: %s\n", orDefault(l.BaseURL))
	cmd.Printf("  API key: %s\n", describeKeyEnv(l.APIKeyEnv))
	cmd.Printf("  Temperature: %.2f, max tokens: %d\n", l.Temperature, l.MaxTokens)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func orDefault(s string) string {
	if s == "" {
		return "(provider default)"
	}
	return s
}

// describeKeyEnv names the environment variable and whether it is set.
func describeKeyEnv(env string) string {
	if env == "" {
		return "(none)"
	}
	value := os.Getenv(env)
	if value == "" {
		return fmt.Sprintf("$%s (not set)", env)
	}
	return fmt.Sprintf("$%s (%s)", env, maskAPIKey(value))
}

// maskAPIKey shows only the first and last 4 characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
