package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tomfevang/go-populate-my-db/internal/generator"
)

type listGeneratorsArgs struct{}

func registerListGenerators(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "list_generators",
		Description: "List every field generator a blueprint can name, with a one-line description. " +
			"Takes no arguments. All generators additionally accept 'nullable', 'unique' and 'shadow'.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, handleListGenerators)
}

func handleListGenerators(_ context.Context, _ *mcp.CallToolRequest, _ listGeneratorsArgs) (*mcp.CallToolResult, any, error) {
	var sb strings.Builder
	sb.WriteString("Available generators:\n")
	for _, e := range generator.Catalog() {
		fmt.Fprintf(&sb, "  - %s: %s\n", e.Name, e.Doc)
	}
	return textResult(sb.String()), nil, nil
}
