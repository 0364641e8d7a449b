// Command wildcat-cli is a terminal client for a Wildcat Market server.
//
// It keeps its session token under the user config directory, so a login
// survives restarts until "logout".
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/erazemk/wildcat/internal/client"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("wildcat-cli", flag.ContinueOnError)

	defaultServer := os.Getenv("WILDCAT_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	var server, tokenFile string
	fs.StringVar(&server, "server", defaultServer, "")
	fs.StringVar(&server, "s", defaultServer, "")
	fs.StringVar(&tokenFile, "token", "", "")
	fs.StringVar(&tokenFile, "t", "", "")

	var verbose bool
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: wildcat-cli [flags]

Flags:
  -s, -server <url>       server base URL (default: $WILDCAT_URL or http://localhost:8080)
  -t, -token <path>       session token file (default: <user config dir>/wildcat/session)
  -v, -verbose            log requests and state changes to stderr
  -h, -help               show this help and exit

Type "help" at the prompt for the list of commands.
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if tokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		tokenFile = filepath.Join(dir, "wildcat", "session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(server, client.WithTokenFile(tokenFile))
	a := newApp(c, os.Stdin, os.Stdout)
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	a.Loop(ctx)
	return 0
}
