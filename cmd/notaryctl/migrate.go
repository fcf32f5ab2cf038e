package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/notaris/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply, roll back and inspect schema migrations.

By default the migrations compiled into the binary are used. Pass --path
to run migrations from a directory instead, for example while writing a
new one.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withMigrator(func(m *migration.Migrator) error { return m.Up() })
		printVersion()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fail("Refusing to drop the schema without --yes")
		}
		withMigrator(func(m *migration.Migrator) error { return m.Down() })
		fmt.Println("All migrations rolled back")
	},
}

var migrateStepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations, or roll back when N is negative",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			fail("Invalid step count %q", args[0])
		}
		withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
		printVersion()
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Set the schema version without running migrations",
	Long: `Force marks VERSION as applied and clears the dirty flag. Use it
after repairing a migration that failed halfway.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			fail("Invalid version %q", args[0])
		}
		withMigrator(func(m *migration.Migrator) error { return m.Force(v) })
		printVersion()
	},
}

var migrateCreateCmd = &cobra.Command{
	Use:   "create NAME [DESCRIPTION]",
	Short: "Write an empty up/down migration pair",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		desc := ""
		if len(args) == 2 {
			desc = args[1]
		}
		f, err := migration.Create(dir, args[0], desc, time.Now())
		if err != nil {
			fail("Failed to create migration: %s", err)
		}
		fmt.Printf("Created migration %06d_%s\n  %s\n  %s\n", f.Version, f.Name, f.UpPath, f.DownPath)
	},
}

var migrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known migrations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			entries []migration.Entry
			err     error
		)
		if migrationsPath != "" {
			entries, err = migration.List(os.DirFS(migrationsPath))
		} else {
			entries, err = migration.Embedded()
		}
		if err != nil {
			fail("Failed to list migrations: %s", err)
		}
		for _, e := range entries {
			down := ""
			if !e.HasDown {
				down = " (no down)"
			}
			fmt.Printf("%06d  %s%s\n", e.Version, e.Name, down)
		}
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "read migrations from this directory")
	migrateDownCmd.Flags().Bool("yes", false, "confirm dropping every table")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStepsCmd, migrateVersionCmd,
		migrateForceCmd, migrateCreateCmd, migrateListCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrator(fn func(m *migration.Migrator) error) {
	cfg, log := loadEnv()
	defer func() { _ = log.Sync() }()

	var (
		m   *migration.Migrator
		err error
	)
	if migrationsPath != "" {
		m, err = migration.NewFromDir(cfg.Database.DSN(), strings.TrimSuffix(migrationsPath, "/"), log)
	} else {
		var db *sql.DB
		db, err = sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			fail("Failed to open database: %s", err)
		}
		m, err = migration.New(db, log)
	}
	if err != nil {
		fail("Failed to initialize migrations: %s", err)
	}
	defer func() { _ = m.Close() }()

	if err := fn(m); err != nil {
		fail("%s", err)
	}
}

func printVersion() {
	withMigrator(func(m *migration.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		state := "clean"
		if dirty {
			state = "dirty"
		}
		fmt.Printf("Schema version %d (%s)\n", version, state)
		return nil
	})
}
