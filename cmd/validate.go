package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomfevang/go-populate-my-db/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILES...",
	Short: "Check blueprint files without touching a database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	bp, err := loader.Load(nil, args...)
	if err != nil {
		return err
	}

	items := bp.Items()
	for _, it := range items {
		if total, ok := it.Total(); ok {
			fmt.Printf("  %-24s ~%d rows into %s\n", it.Name, total, it.Table)
		} else {
			fmt.Printf("  %-24s dynamic count into %s\n", it.Name, it.Table)
		}
	}
	for _, fx := range bp.Fixtures() {
		fmt.Printf("  %-24s fixture of %s\n", fx.Name(), fx.Item())
	}
	fmt.Printf("OK: %d items, %d fixtures\n", len(items), len(bp.Fixtures()))
	return nil
}
