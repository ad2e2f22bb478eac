package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomfevang/go-populate-my-db/internal/backend/memory"
	"github.com/tomfevang/go-populate-my-db/internal/loader"
)

var previewSampleRows int

var previewCmd = &cobra.Command{
	Use:   "preview FILES...",
	Short: "Preview generated data without touching a database",
	Long: `The preview subcommand runs the full generation against an in-memory
backend and shows sample rows for each table, so you can verify data
quality and relationship structure before pointing a blueprint at a
real database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().IntVar(&previewSampleRows, "sample", 5, "Number of sample rows to display per table")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	be := memory.New()
	bp, err := loader.Load(be, args...)
	if err != nil {
		return err
	}
	if err := bp.Generate(cmd.Context()); err != nil {
		return err
	}

	for _, tbl := range be.Tables() {
		fmt.Printf("\n=== %s (%d rows) ===\n\n", tbl.Name, len(tbl.Rows))
		printTableSample(tbl, previewSampleRows)
	}
	fmt.Println()
	return nil
}

// printTableSample prints up to limit rows of a captured table, primary
// keys included.
func printTableSample(tbl *memory.Table, limit int) {
	colNames := append([]string{"id"}, tbl.Columns...)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  %s\n", strings.Join(colNames, "\t"))
	seps := make([]string, len(colNames))
	for i, h := range colNames {
		seps[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(seps, "\t"))

	for i, row := range tbl.Rows {
		if i >= limit {
			break
		}
		vals := make([]string, 0, len(colNames))
		vals = append(vals, fmt.Sprintf("%d", tbl.IDs[i]))
		for _, v := range row {
			vals = append(vals, formatPreviewValue(v))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(vals, "\t"))
	}
	w.Flush()
}

func formatPreviewValue(v any) string {
	if v == nil {
		return "NULL"
	}
	s := fmt.Sprintf("%v", v)
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}
