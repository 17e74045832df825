package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skinmatch/backend/internal/domain"
)

var matchLimit int

var matchCmd = &cobra.Command{
	Use:   "match [concern...]",
	Short: "Rank products against several concerns at once",
	Long: `Scores every skincare product against each concern and rewards
products that address several of them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "n", 0, "maximum number of products (0 uses the configured default)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	if matchLimit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	matches := s.service.RecommendForConcerns(ctx, args, matchLimit)

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, matches)
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No products found.")
		return nil
	}
	for i, m := range matches {
		fmt.Fprintf(out, "  [%d] %s (%.1f) %s\n", i+1, m.Product.Name, m.Score, strings.Join(m.AddressedConcerns, ", "))
	}
	return nil
}
