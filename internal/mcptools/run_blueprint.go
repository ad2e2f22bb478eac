package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tomfevang/go-populate-my-db/internal/backend/postgres"
)

type runBlueprintArgs struct {
	Files         []string `json:"files,omitempty" jsonschema:"Paths of blueprint YAML files, applied in order."`
	BlueprintYAML string   `json:"blueprint_yaml,omitempty" jsonschema:"Inline blueprint YAML, applied after any files."`
	Database      string   `json:"database,omitempty" jsonschema:"Database name. Defaults to the PGDATABASE environment variable."`
}

func registerRunBlueprint(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "run_blueprint",
		Description: `Generate every row the blueprint declares into the configured PostgreSQL database,
inside a single transaction. Connection parameters come from the PGHOST, PGPORT,
PGDATABASE, PGUSER and PGPASSWORD environment variables. Preview first with
preview_blueprint; this tool writes real rows.`,
	}, handleRunBlueprint)
}

func handleRunBlueprint(ctx context.Context, _ *mcp.CallToolRequest, args runBlueprintArgs) (*mcp.CallToolResult, any, error) {
	be, err := postgres.Connect(ctx, postgres.Options{DB: args.Database})
	if err != nil {
		return errResult(err.Error()), nil, nil
	}
	defer be.Close(ctx)

	bp, err := loadBlueprint(be, args.Files, args.BlueprintYAML)
	if err != nil {
		return errResult(err.Error()), nil, nil
	}

	if err := be.Transaction(ctx, bp.Generate); err != nil {
		return errResult("generation failed, transaction rolled back: " + err.Error()), nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Generation committed:\n")
	written := bp.Written()
	var total int64
	for _, it := range bp.Items() {
		fmt.Fprintf(&sb, "  - %s: %d rows into %s\n", it.Name, written[it.Name], it.Table)
		total += written[it.Name]
	}
	fmt.Fprintf(&sb, "  total: %d rows\n", total)
	return textResult(sb.String()), nil, nil
}
