package cmd

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/tomfevang/go-populate-my-db/internal/mcptools"
	"github.com/tomfevang/go-populate-my-db/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP stdio server for use with Claude Code and other AI tools",
	Long: `The mcp subcommand starts a Model Context Protocol server that communicates
over stdin/stdout using JSON-RPC. This allows AI tools like Claude Code to
validate blueprints, preview generated data, and populate databases.

Configure in .claude/settings.json:

  "mcpServers": {
    "populate-my-db": {
      "command": "go-populate-my-db",
      "args": ["mcp"],
      "env": { "PGHOST": "localhost", "PGDATABASE": "mydb", "PGUSER": "me" }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

const mcpInstructions = `go-populate-my-db fills PostgreSQL databases with blueprint-driven fake data.

## Connection

The run_blueprint tool connects with the usual PGHOST, PGPORT, PGDATABASE,
PGUSER and PGPASSWORD environment variables. The other tools never touch a
database.

## Workflow

1. **list_generators** → see what field generators a blueprint can use
2. **validate_blueprint** → check a blueprint without generating anything
3. **preview_blueprint** → dry-run: generate into memory and show sample rows
4. **run_blueprint** → generate into the configured PostgreSQL database

A demo blueprint is available as the blueprint://demo resource. Start with
validate_blueprint, preview before writing, and only call run_blueprint when
the user has confirmed the target database.`

func runMCP(_ *cobra.Command, _ []string) error {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "go-populate-my-db",
			Version: version.Version(),
		},
		&mcp.ServerOptions{
			Instructions: mcpInstructions,
		},
	)

	mcptools.RegisterAll(server, ExamplesFS)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
