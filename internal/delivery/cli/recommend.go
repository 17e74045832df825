package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skinmatch/backend/internal/domain"
)

var (
	recommendLimit    int
	recommendDetected string
	recommendExplain  bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [concern]",
	Short: "Recommend products for one skin concern",
	Long: `Ranks skincare products for a single concern.
English labels and common aliases are accepted (e.g. "acne", "dry skin").`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 0, "maximum number of products (0 uses the configured default)")
	recommendCmd.Flags().StringVar(&recommendDetected, "detected", "", "comma separated list of every detected concern")
	recommendCmd.Flags().BoolVar(&recommendExplain, "explain", false, "show relevance scores")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if recommendLimit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	concern := args[0]
	out := cmd.OutOrStdout()

	if recommendExplain {
		candidates := s.service.ExplainConcern(ctx, concern, recommendLimit)
		if outputJSON {
			return writeJSON(out, candidates)
		}
		if len(candidates) == 0 {
			fmt.Fprintln(out, "No products found.")
			return nil
		}
		for i, c := range candidates {
			fmt.Fprintf(out, "  [%d] %s (%.1f)\n", i+1, c.Product.Name, c.Score)
		}
		return nil
	}

	detected := s.service.Matcher().Resolver().ResolveAll(splitList(recommendDetected))
	products := s.service.RecommendForConcern(ctx, concern, recommendLimit, detected)
	if outputJSON {
		return writeJSON(out, products)
	}
	printProducts(cmd, products)
	return nil
}

func printProducts(cmd *cobra.Command, products []domain.Product) {
	out := cmd.OutOrStdout()
	if len(products) == 0 {
		fmt.Fprintln(out, "No products found.")
		return
	}
	for i, p := range products {
		fmt.Fprintf(out, "  [%d] %s", i+1, p.Name)
		if p.Subcategory != "" {
			fmt.Fprintf(out, " (%s)", p.Subcategory)
		}
		fmt.Fprintln(out)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
