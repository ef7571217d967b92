package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/db"
	"github.com/hpungsan/memo/internal/errors"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
// "-v" is left to the query path so `memo -v` finds `grep -v ...`.
func isHelpOrVersion(args []string) bool {
	if len(args) != 1 {
		return false
	}
	switch args[0] {
	case "-h", "--help", "help", "--version":
		return true
	}
	return false
}

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	// Help and version need no store
	if isHelpOrVersion(args[1:]) {
		return runApp(newCLIApp(&deps{stdout: os.Stdout, stderr: os.Stderr}), args)
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine state directory: %v\n", err)
		return 1
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		return 1
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	database, err := openStore(baseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		return errors.ExitCode(err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	d, err := newDeps(database, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return runApp(newCLIApp(d), args)
}

// openStore opens the database under baseDir.
func openStore(baseDir string) (*sql.DB, error) {
	database, err := db.Init(baseDir)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	return database, nil
}
