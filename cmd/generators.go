package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomfevang/go-populate-my-db/internal/generator"
)

var generatorsCmd = &cobra.Command{
	Use:   "generators",
	Short: "List the available field generators",
	Long: `The generators command lists every generator a blueprint field can name,
with a one-line description of what it produces. Generator-specific
parameters are documented in the README; all generators additionally
accept 'nullable', 'unique' and 'shadow'.`,
	RunE: runGenerators,
}

func init() {
	rootCmd.AddCommand(generatorsCmd)
}

func runGenerators(cmd *cobra.Command, args []string) error {
	var md strings.Builder
	md.WriteString("# Generators\n\n")
	md.WriteString("| Generator | Produces |\n")
	md.WriteString("|---|---|\n")
	for _, e := range generator.Catalog() {
		fmt.Fprintf(&md, "| %s | %s |\n", e.Name, e.Doc)
	}

	rendered, err := renderMarkdown(md.String())
	if err != nil {
		// fall back to the raw table when rendering is unavailable
		fmt.Print(md.String())
		return nil
	}
	fmt.Print(rendered)
	return nil
}

// terminalWidth returns the current terminal width, falling back to 120.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 120
	}
	return w
}

// renderMarkdown renders md for the current terminal.
func renderMarkdown(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
