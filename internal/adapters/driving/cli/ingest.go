package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/core/domain"
)

var resetConfirmed bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest new and changed policy documents",
	Long: `Runs one incremental pass over the policy directory.
Unseen and changed documents are embedded, unchanged ones are skipped
and documents no longer on disk are purged from the store.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [name]",
	Short: "Re-embed one document",
	Long:  `Re-extracts and re-embeds one document regardless of its content hash.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReprocess,
}

var removeCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove one document from the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the store and all ingest tracking",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingestion status per document",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm deleting every stored embedding")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statusCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.Ingest(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, report)
	}
	printReport(cmd, report)
	return nil
}

// printReport writes a one-line summary followed by every document that changed.
func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Ingest finished in %s: %d new, %d changed, %d unchanged, %d removed, %d failed\n",
		report.Duration.Round(time.Millisecond), report.Unseen, report.Changed,
		report.Unchanged, report.Removed, report.Failed)

	for _, o := range report.Outcomes {
		if o.Change == domain.ChangeUnchanged {
			continue
		}
		cmd.Println("  " + formatOutcome(o))
	}
}

func formatOutcome(o domain.DocumentOutcome) string {
	switch {
	case o.Status == domain.StatusError:
		return fmt.Sprintf("%s %s: error: %s", o.Change, o.Name, o.Error)
	case o.Change == domain.ChangeRemoved:
		return fmt.Sprintf("%s %s", o.Change, o.Name)
	default:
		return fmt.Sprintf("%s %s (%d chunks)", o.Change, o.Name, o.Chunks)
	}
}

func runReprocess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	outcome, err := ingestService.Reprocess(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("reprocess failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, outcome)
	}
	cmd.Println(formatOutcome(*outcome))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Remove(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if !resetConfirmed {
		return errors.New("reset deletes every stored embedding; rerun with --yes")
	}

	if err := ingestService.Reset(commandContext(cmd)); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Println("Store and ingest state cleared.")
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	state, err := ingestService.Status(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("reading status failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, state)
	}

	if len(state.Documents) == 0 {
		cmd.Println("No documents tracked. Run 'athena ingest' first.")
		return nil
	}

	names := make([]string, 0, len(state.Documents))
	for name := range state.Documents {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		doc := state.Documents[name]
		total += doc.Chunks
		line := fmt.Sprintf("  %-40s %-10s %4d chunks", name, doc.Status, doc.Chunks)
		if !doc.UpdatedAt.IsZero() {
			line += "  " + doc.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		if doc.Error != "" {
			line += "  " + doc.Error
		}
		cmd.Println(line)
	}
	cmd.Println()
	cmd.Printf("%d documents, %d chunks (schema v%d)\n", len(names), total, state.SchemaVersion)
	if state.SchemaVersion != domain.IndexSchemaVersion {
		cmd.Printf("Index schema is outdated (current v%d); the next ingest re-embeds everything.\n",
			domain.IndexSchemaVersion)
	}
	return nil
}
