package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/erazemk/wildcat/internal/config"
	"github.com/erazemk/wildcat/internal/db"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

func runImport(args []string) int {
	fs := flag.NewFlagSet("wildcat import", flag.ContinueOnError)

	var envFile, dbPath, file string
	fs.StringVar(&envFile, "env", ".env", "")
	fs.StringVar(&envFile, "e", ".env", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&file, "file", "", "")
	fs.StringVar(&file, "f", "", "")

	var titleCase bool
	fs.BoolVar(&titleCase, "title", false, "")
	fs.BoolVar(&titleCase, "t", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: wildcat import [flags] [-f <file>]

Loads a JSON array of {"email": ..., "full_name": ...} rows into the directory.
Existing emails are updated. Reads stdin when no file is given.

Flags:
  -f, -file <path>        JSON file to import (default: stdin)
  -d, -db <path>          SQLite database path (default: $WILDCAT_DB or wildcat.sqlite3)
  -e, -env <path>         .env file to load (default: .env)
  -t, -title              title-case names ("JANE DOE" becomes "Jane Doe")
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if file == "" && fs.NArg() == 1 {
		file = fs.Arg(0)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	var in io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	entries, err := decodeDirectory(in, titleCase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer database.Close()
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		return 1
	}

	n, err := store.ImportDirectory(context.Background(), database, entries)
	if err != nil {
		slog.Error("failed to import directory", "error", err)
		return 1
	}

	slog.Info("directory imported", "rows", n, "skipped", len(entries)-n, "path", cfg.DBPath)
	fmt.Printf("Imported %d of %d directory entries.\n", n, len(entries))
	return 0
}

// decodeDirectory reads a JSON array of directory rows.
func decodeDirectory(r io.Reader, titleCase bool) ([]model.DirectoryEntry, error) {
	var entries []model.DirectoryEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding directory: %w", err)
	}
	if titleCase {
		caser := cases.Title(language.English)
		for i := range entries {
			entries[i].FullName = caser.String(strings.TrimSpace(entries[i].FullName))
		}
	}
	return entries, nil
}
