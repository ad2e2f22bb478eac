package mcptools

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerResources registers the bundled example blueprints as MCP
// resources so AI clients can read them for reference when writing their
// own.
func registerResources(s *mcp.Server, embeddedFS fs.ReadFileFS) {
	registerBlueprintResource(s, embeddedFS,
		"demo",
		"Blog demo blueprint",
		"A small blog database (users, posts, comments) exercising parent-driven "+
			"counts, store_in bindings, unique fields and template expressions. "+
			"Read this before writing a blueprint of your own.",
		"examples/blog.yaml",
	)
	registerBlueprintResource(s, embeddedFS,
		"inventory",
		"Inventory demo blueprint",
		"A product inventory (warehouses, products, stock) exercising Choices, "+
			"UUID, Select with composite uniqueness, nullable fields and fixtures.",
		"examples/inventory.yaml",
	)
}

func registerBlueprintResource(
	s *mcp.Server,
	embeddedFS fs.ReadFileFS,
	name, title, description, path string,
) {
	uri := "blueprint://" + name

	s.AddResource(&mcp.Resource{
		Name:        name,
		URI:         uri,
		Title:       title,
		Description: description,
		MIMEType:    "application/yaml",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := embeddedFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading embedded blueprint %s: %w", name, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      req.Params.URI,
					MIMEType: "application/yaml",
					Text:     string(data),
				},
			},
		}, nil
	})
}
