package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// previewRunes bounds the text shown per search result.
const previewRunes = 160

var (
	searchK int

	contextK            int
	contextMaxChars     int
	contextMaxPerSource int
	contextMode         string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed policies",
	Long: `Finds the chunks most similar to the query and reranks them by
token overlap and by the roles, categories and document types the query asks for.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble cited context for a question",
	Long: `Selects, formats and cites policy snippets for a question, as they
would be handed to a language model.

Modes:
  qa      - the few chunks closest to the question (default)
  summary - broad page coverage of the documents the question names`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the policies",
	Long: `Assembles context for the question and asks the configured language model.
When no policy matches, the answer is marked as ungrounded.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 5, "maximum number of results")

	for _, c := range []*cobra.Command{contextCmd, askCmd} {
		c.Flags().IntVarP(&contextK, "k", "k", 0, "snippets in qa mode (0 = configured default)")
		c.Flags().IntVar(&contextMaxChars, "max-chars", 0, "context length bound (0 = configured default)")
		c.Flags().IntVar(&contextMaxPerSource, "max-per-source", 0, "snippets per document (0 = configured default)")
		c.Flags().StringVar(&contextMode, "mode", "qa", "assembly mode: qa or summary")
	}

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(askCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	matches, err := retrievalService.Search(commandContext(cmd), query, searchK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	matches = retrievalService.Rerank(query, matches)

	if jsonOutput {
		return printJSON(cmd, matches)
	}

	if len(matches) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range matches {
		m := &matches[i]
		cmd.Printf("[%d] %s p.%d (%.3f) %s/%s\n", i+1, m.Source, m.Page, m.Score, m.Category, m.Role)
		cmd.Printf("    %s\n", preview(m.Text, previewRunes))
	}
	return nil
}

func assembleOptions() (domain.AssembleOptions, error) {
	mode, err := domain.ParseMode(contextMode)
	if err != nil {
		return domain.AssembleOptions{}, fmt.Errorf("invalid mode %q: %w", contextMode, err)
	}
	return domain.AssembleOptions{
		K:            contextK,
		MaxChars:     contextMaxChars,
		MaxPerSource: contextMaxPerSource,
		Mode:         mode,
	}, nil
}

func runContext(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts, err := assembleOptions()
	if err != nil {
		return err
	}

	assembled, err := retrievalService.Assemble(commandContext(cmd), args[0], opts)
	if err != nil {
		return fmt.Errorf("assembling context failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, assembled)
	}

	if assembled.IsEmpty() {
		cmd.Println("No relevant policy context found.")
		return nil
	}
	cmd.Println(assembled.Text)
	cmd.Println()
	printCitations(cmd, assembled.Citations)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	opts, err := assembleOptions()
	if err != nil {
		return err
	}

	answer, err := answerService.Answer(commandContext(cmd), args[0], opts)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	cmd.Println()
	if !answer.Grounded {
		cmd.Println("(no policy context was found for this question)")
		return nil
	}
	printCitations(cmd, answer.Citations)
	return nil
}

func printCitations(cmd *cobra.Command, citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}
	cmd.Println("Sources:")
	for _, c := range citations {
		cmd.Printf("  - %s, page %d (%.3f)\n", c.Source, c.Page, c.Score)
	}
}

// preview collapses whitespace and truncates to n runes.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
