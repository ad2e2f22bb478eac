// Package mcptools exposes blueprint operations as Model Context Protocol
// tools, so AI clients can validate, preview and run blueprints through
// the mcp command.
package mcptools

import (
	"io/fs"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all go-populate-my-db tools and resources on the
// given MCP server. The embeddedFS provides the bundled example blueprints
// served as MCP resources.
func RegisterAll(s *mcp.Server, embeddedFS fs.ReadFileFS) {
	registerListGenerators(s)
	registerValidateBlueprint(s)
	registerPreviewBlueprint(s)
	registerRunBlueprint(s)

	registerResources(s, embeddedFS)
}
