package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinmatch/backend/internal/domain"
)

var analyzeLimit int

var analyzeCmd = &cobra.Command{
	Use:   "analyze [detections.json]",
	Short: "Recommend products from detector output",
	Long: `Reads a JSON array of detections ({"classId", "score", "bbox"})
and prints recommendations grouped by concern, most severe first.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 0, "maximum number of products per concern")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read detections: %w", err)
	}
	var detections []domain.Detection
	if err := json.Unmarshal(raw, &detections); err != nil {
		return fmt.Errorf("failed to decode detections: %w", err)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	groups := s.service.Analyze(ctx, detections, analyzeLimit)

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, groups)
	}
	if len(groups) == 0 {
		fmt.Fprintln(out, "No concern detected.")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintf(out, "%s (%.0f%%)\n", g.Concern, g.Confidence*100)
		printProducts(cmd, g.Products)
	}
	return nil
}
