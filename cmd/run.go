package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomfevang/go-populate-my-db/internal/backend/memory"
	"github.com/tomfevang/go-populate-my-db/internal/backend/postgres"
	"github.com/tomfevang/go-populate-my-db/internal/blueprint"
	"github.com/tomfevang/go-populate-my-db/internal/loader"
)

var (
	pgHost     string
	pgPort     int
	pgDB       string
	pgUser     string
	pgPassword string
	runDryRun  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load blueprints and generate rows into a database",
}

var runPostgresCmd = &cobra.Command{
	Use:   "postgres FILES...",
	Short: "Generate rows into a PostgreSQL database",
	Long: `The postgres command loads the given blueprint files (later files override
earlier variables and re-declare items), connects to PostgreSQL, and
generates every declared row inside a single transaction.

Connection flags left unset fall back to the usual PGHOST, PGPORT,
PGDATABASE, PGUSER and PGPASSWORD environment variables.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPostgres,
}

func init() {
	f := runPostgresCmd.Flags()
	f.StringVar(&pgHost, "host", "", "Database host")
	f.IntVar(&pgPort, "port", 0, "Database port")
	f.StringVar(&pgDB, "db", "", "Database name")
	f.StringVar(&pgUser, "user", "", "Database user")
	f.StringVar(&pgPassword, "password", "", "Database password")
	f.BoolVar(&runDryRun, "dry-run", false, "Generate into memory and report row counts instead of writing")

	runCmd.AddCommand(runPostgresCmd)
	rootCmd.AddCommand(runCmd)
}

func runPostgres(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	if runDryRun {
		bp, err := loader.Load(memory.New(), args...)
		if err != nil {
			return err
		}
		if err := bp.Generate(ctx); err != nil {
			return err
		}
		fmt.Println("Dry run, nothing written:")
		reportCounts(bp)
		return nil
	}

	be, err := postgres.Connect(ctx, postgres.Options{
		Host:     pgHost,
		Port:     pgPort,
		DB:       pgDB,
		User:     pgUser,
		Password: pgPassword,
	})
	if err != nil {
		return err
	}
	defer be.Close(ctx)

	bp, err := loader.Load(be, args...)
	if err != nil {
		return err
	}

	if err := be.Transaction(ctx, bp.Generate); err != nil {
		return err
	}

	reportCounts(bp)
	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func reportCounts(bp *blueprint.Blueprint) {
	written := bp.Written()
	var total int64
	for _, it := range bp.Items() {
		fmt.Printf("  %-24s %d rows\n", it.Name, written[it.Name])
		total += written[it.Name]
	}
	fmt.Printf("  %-24s %d rows\n", "total", total)
}
