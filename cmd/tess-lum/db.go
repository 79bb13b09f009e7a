package main

import (
	"fmt"

	"github.com/banshee-data/tesslum/internal/catalog"
	"github.com/banshee-data/tesslum/internal/catalog/sqlite"
)

// importCrossMatch loads the cross-match CSV into a SQLite database.
func (a *app) importCrossMatch(args []string) error {
	fs := newFlagSet(a, "import")
	common := registerCommon(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}
	if !cfg.UseDatabase() {
		fmt.Fprintln(a.stderr, "Error: -db is required (or crossmatch_db in the config)")
		return errUsage
	}

	store, err := sqlite.Open(cfg.GetCrossMatchDB())
	if err != nil {
		return fmt.Errorf("failed to open cross-match database: %w", err)
	}
	defer store.Close()

	path := cfg.GetCrossMatchPath()
	f, err := a.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cross-match table: %w", err)
	}
	defer f.Close()

	t, err := catalog.NewTableReader(f)
	if err != nil {
		return fmt.Errorf("cross-match table %s: %w", path, err)
	}
	stats, err := store.Import(t, cfg.GetCrossMatchColumns(), path)
	if err != nil {
		return err
	}

	total, err := store.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "import %s: rows=%d inserted=%d duplicates=%d bad_ids=%d total=%d\n",
		stats.ImportID, stats.Rows, stats.Inserted, stats.Duplicates, stats.BadIDs, total)
	return nil
}

// migrate applies or reports schema migrations. "version" opens the
// database without migrating it.
func (a *app) migrate(args []string) error {
	fs := newFlagSet(a, "migrate")
	dbPath := fs.String("db", "", "SQLite cross-match database")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *dbPath == "" {
		fmt.Fprintln(a.stderr, "Error: -db is required")
		return errUsage
	}

	action := "up"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}
	if action != "up" && action != "version" {
		fmt.Fprintf(a.stderr, "Error: unknown migrate action %q (want up or version)\n", action)
		return errUsage
	}

	store, err := sqlite.OpenWithoutMigrate(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if action == "up" {
		if err := store.MigrateUp(); err != nil {
			return err
		}
	}

	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "schema version %d (latest %d, dirty=%v)\n", v, sqlite.LatestVersion, dirty)
	return nil
}
