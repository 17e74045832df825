package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skinmatch/backend/internal/usecase"
)

var concernsCmd = &cobra.Command{
	Use:   "concerns",
	Short: "List supported skin concerns",
	Args:  cobra.NoArgs,
	RunE:  runConcerns,
}

func init() {
	rootCmd.AddCommand(concernsCmd)
}

type concernEntry struct {
	Name        string `json:"name"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description"`
}

func runConcerns(cmd *cobra.Command, args []string) error {
	names := usecase.SupportedConcerns()
	entries := make([]concernEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, concernEntry{
			Name:        name,
			Severity:    string(usecase.ConcernSeverity(name)),
			Description: usecase.ConcernDescription(name),
		})
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, entries)
	}

	for _, e := range entries {
		severity := e.Severity
		if severity == "" {
			severity = "-"
		}
		fmt.Fprintf(out, "%-20s %-9s %s\n", e.Name, severity, e.Description)
	}
	return nil
}
