// Command wildcat runs the Wildcat Market server: the JSON API, the web UI,
// uploaded media and Prometheus metrics. "wildcat import" loads the student
// directory used to prefill names on first login.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/wildcat/internal/api"
	"github.com/erazemk/wildcat/internal/config"
	"github.com/erazemk/wildcat/internal/db"
	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/objstore"
	"github.com/erazemk/wildcat/internal/otp"
	"github.com/erazemk/wildcat/internal/store"
	"github.com/erazemk/wildcat/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "import" {
		os.Exit(runImport(os.Args[2:]))
	}
	os.Exit(serve(os.Args[1:]))
}

func serve(args []string) int {
	fs := flag.NewFlagSet("wildcat", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env", ".env", "")
	fs.StringVar(&envFile, "e", ".env", "")

	var dbPath, addr, logPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: wildcat [flags]
       wildcat import [flags] <file>

Flags:
  -e, -env <path>         .env file to load (default: .env, missing is fine)
  -d, -db <path>          SQLite database path (default: $WILDCAT_DB or wildcat.sqlite3)
  -a, -addr <host:port>   listen address (default: $WILDCAT_ADDR or :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Everything else is configured with WILDCAT_* environment variables.
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return 1
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

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
	slog.Info("database ready", "path", cfg.DBPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost" + cfg.Addr
	}
	objects, media, closeObjects, err := openObjectStore(ctx, cfg, baseURL)
	if err != nil {
		slog.Error("failed to open object store", "backend", cfg.StorageBackend, "error", err)
		return 1
	}
	defer closeObjects()

	var codes otp.Store = otp.SQLStore{DB: database}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to reach redis", "addr", cfg.RedisAddr, "error", err)
			return 1
		}
		codes = otp.NewRedisStore(rdb)
		slog.Info("login codes stored in redis", "addr", cfg.RedisAddr)
	}

	var mailer otp.Mailer = otp.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = otp.NewSMTPMailer(otp.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			SSL:      cfg.SMTPSSL,
		})
	} else {
		slog.Warn("no SMTP host configured, login codes are written to the log")
	}

	codeService := otp.NewService(codes, mailer, otp.Options{
		Domain:      cfg.EmailDomain,
		TTL:         cfg.OTPTTL,
		Cooldown:    cfg.OTPCooldown,
		MaxAttempts: cfg.OTPMaxAttempts,
	})

	apiRouter := api.NewRouter(api.Server{
		DB:         database,
		JWTSecret:  jwtSecret,
		OTP:        codeService,
		Objects:    objects,
		SessionTTL: cfg.SessionTTL,
	})
	webRouter, err := web.NewRouter(&web.Server{
		DB:             database,
		JWTSecret:      jwtSecret,
		OTP:            codeService,
		Objects:        objects,
		SessionTTL:     cfg.SessionTTL,
		ModeratorEmail: cfg.ModeratorAddress(),
		SecureCookies:  cfg.Secure,
	})
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		return 1
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /metrics", metrics.Handler())
	if media != nil {
		mux.Handle("GET /media/", media)
	}
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go janitor(ctx, database, time.Hour)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "storage", cfg.StorageBackend, "domain", cfg.EmailDomain)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return 1
	}

	slog.Info("server stopped, closing database")
	return 0
}

// openObjectStore builds the configured photo store. media is the handler for
// /media/ when photos are served by this process, nil otherwise.
func openObjectStore(ctx context.Context, cfg *config.Config, baseURL string) (objstore.Store, http.Handler, func(), error) {
	noop := func() {}
	switch cfg.StorageBackend {
	case "s3":
		s, err := objstore.NewS3(cfg.S3Region, cfg.S3Bucket)
		return s, nil, noop, err
	case "gcs":
		g, err := objstore.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentials)
		if err != nil {
			return nil, nil, noop, err
		}
		return g, nil, func() { g.Close() }, nil
	default:
		l, err := objstore.NewLocal(cfg.LocalStorageDir, baseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		return l, l.Handler(), noop, nil
	}
}
