package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var productCmd = &cobra.Command{
	Use:   "product [id]",
	Short: "Show one catalog product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProduct,
}

func init() {
	rootCmd.AddCommand(productCmd)
}

func runProduct(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	product, err := s.service.GetProduct(ctx, args[0])
	if err != nil {
		return fmt.Errorf("product %q: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, product)
	}

	fmt.Fprintf(out, "%s  %s\n", product.ID, product.Name)
	fmt.Fprintf(out, "  category:    %s\n", product.Category)
	if product.Subcategory != "" {
		fmt.Fprintf(out, "  subcategory: %s\n", product.Subcategory)
	}
	if product.Featured {
		fmt.Fprintln(out, "  featured")
	}
	if product.Description != "" {
		fmt.Fprintf(out, "  %s\n", product.Description)
	}
	return nil
}
