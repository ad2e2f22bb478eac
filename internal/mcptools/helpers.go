package mcptools

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tomfevang/go-populate-my-db/internal/backend"
	"github.com/tomfevang/go-populate-my-db/internal/blueprint"
	"github.com/tomfevang/go-populate-my-db/internal/loader"
)

// textResult builds a CallToolResult with a single TextContent.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// errResult builds a CallToolResult that reports an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// loadBlueprint loads a blueprint from the given files and/or inline YAML.
// Inline YAML goes through a temp file so validation errors carry a file
// name like every other loader error.
func loadBlueprint(be backend.Backend, files []string, inline string) (*blueprint.Blueprint, error) {
	if len(files) == 0 && inline == "" {
		return nil, fmt.Errorf("provide 'files' or 'blueprint_yaml'")
	}
	if inline != "" {
		dir, err := os.MkdirTemp("", "blueprint")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "blueprint.yaml")
		if err := os.WriteFile(path, []byte(inline), 0o644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return loader.Load(be, files...)
}

// itemSummary is one line per declared item.
func itemSummary(bp *blueprint.Blueprint) string {
	out := ""
	for _, it := range bp.Items() {
		if total, ok := it.Total(); ok {
			out += fmt.Sprintf("  - %s -> table %s (~%d rows)\n", it.Name, it.Table, total)
		} else {
			out += fmt.Sprintf("  - %s -> table %s (dynamic count)\n", it.Name, it.Table)
		}
	}
	for _, fx := range bp.Fixtures() {
		out += fmt.Sprintf("  - fixture %s of %s\n", fx.Name(), fx.Item())
	}
	return out
}
