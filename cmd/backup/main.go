// Command backup exports the signup database to a JSON document or restores
// one into it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hoanghai1803/sportsignup/internal/backup"
	"github.com/hoanghai1803/sportsignup/internal/config"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	exportPath := flag.String("export", "", "write a backup to this file (\"-\" for stdout)")
	importPath := flag.String("import", "", "restore a backup from this file (\"-\" for stdin)")
	flag.Parse()

	if (*exportPath == "") == (*importPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -export or -import is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *exportPath, *importPath); err != nil {
		slog.Error("backup failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, exportPath, importPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := storage.OpenDatabase(cfg.Database.Path, cfg.Database.BusyTimeout())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	store := storage.NewStore(db, storage.WithQueryTimeout(cfg.Database.QueryTimeout()))

	ctx := context.Background()

	if exportPath != "" {
		w, closeFn, err := openOutput(exportPath)
		if err != nil {
			return err
		}
		if err := backup.Export(ctx, store, w); err != nil {
			closeFn()
			return err
		}
		return closeFn()
	}

	r, closeFn, err := openInput(importPath)
	if err != nil {
		return err
	}
	defer closeFn()

	sum, err := backup.Import(ctx, store, r)
	if err != nil {
		return err
	}
	fmt.Printf("restored %d users and %d preferences\n", sum.Users, sum.Preferences)
	return nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %q: %w", path, err)
	}
	return f, f.Close, nil
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %q: %w", path, err)
	}
	return f, f.Close, nil
}
