package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tomfevang/go-populate-my-db/internal/backend/memory"
)

type previewBlueprintArgs struct {
	Files         []string `json:"files,omitempty" jsonschema:"Paths of blueprint YAML files, applied in order."`
	BlueprintYAML string   `json:"blueprint_yaml,omitempty" jsonschema:"Inline blueprint YAML, applied after any files."`
	SampleRows    int      `json:"sample_rows,omitempty" jsonschema:"Number of sample rows to show per table (default 5, max 20)."`
}

func registerPreviewBlueprint(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "preview_blueprint",
		Description: `Run the full generation against an in-memory backend and show sample rows per table.
Nothing is written to a database; use this to check data quality and parent/child
relationships before run_blueprint.`,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, handlePreviewBlueprint)
}

func handlePreviewBlueprint(ctx context.Context, _ *mcp.CallToolRequest, args previewBlueprintArgs) (*mcp.CallToolResult, any, error) {
	sample := args.SampleRows
	if sample <= 0 {
		sample = 5
	}
	if sample > 20 {
		sample = 20
	}

	be := memory.New()
	bp, err := loadBlueprint(be, args.Files, args.BlueprintYAML)
	if err != nil {
		return errResult(err.Error()), nil, nil
	}
	if err := bp.Generate(ctx); err != nil {
		return errResult("generation failed: " + err.Error()), nil, nil
	}

	var sb strings.Builder
	for _, tbl := range be.Tables() {
		fmt.Fprintf(&sb, "%s (%d rows):\n", tbl.Name, len(tbl.Rows))
		fmt.Fprintf(&sb, "  id | %s\n", strings.Join(tbl.Columns, " | "))
		for i, row := range tbl.Rows {
			if i >= sample {
				fmt.Fprintf(&sb, "  ... %d more\n", len(tbl.Rows)-sample)
				break
			}
			vals := make([]string, len(row))
			for j, v := range row {
				if v == nil {
					vals[j] = "NULL"
				} else {
					vals[j] = fmt.Sprintf("%v", v)
				}
			}
			fmt.Fprintf(&sb, "  %d | %s\n", tbl.IDs[i], strings.Join(vals, " | "))
		}
		sb.WriteString("\n")
	}
	return textResult(sb.String()), nil, nil
}
