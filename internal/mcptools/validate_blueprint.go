package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateBlueprintArgs struct {
	Files         []string `json:"files,omitempty" jsonschema:"Paths of blueprint YAML files, applied in order (later files override earlier ones)."`
	BlueprintYAML string   `json:"blueprint_yaml,omitempty" jsonschema:"Inline blueprint YAML, applied after any files."`
}

func registerValidateBlueprint(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "validate_blueprint",
		Description: "Parse and validate blueprint files or inline blueprint YAML without touching a database. " +
			"Reports every declared item with its table and expected row count, or the first validation error.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, handleValidateBlueprint)
}

func handleValidateBlueprint(_ context.Context, _ *mcp.CallToolRequest, args validateBlueprintArgs) (*mcp.CallToolResult, any, error) {
	bp, err := loadBlueprint(nil, args.Files, args.BlueprintYAML)
	if err != nil {
		return errResult(err.Error()), nil, nil
	}
	out := fmt.Sprintf("Blueprint OK: %d items, %d fixtures\n%s",
		len(bp.Items()), len(bp.Fixtures()), itemSummary(bp))
	return textResult(out), nil, nil
}
