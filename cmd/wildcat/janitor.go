package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/erazemk/wildcat/internal/store"
)

// janitor periodically deletes expired login codes and revocation entries.
func janitor(ctx context.Context, database *sql.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		sweep(ctx, database, time.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, database *sql.DB, now time.Time) {
	codes, err := store.PurgeExpiredLoginCodes(ctx, database, now)
	if err != nil {
		slog.Error("failed to purge login codes", "error", err)
	}
	tokens, err := store.PurgeRevokedTokens(ctx, database, now)
	if err != nil {
		slog.Error("failed to purge revoked tokens", "error", err)
	}
	if codes > 0 || tokens > 0 {
		slog.Info("purged expired rows", "codes", codes, "tokens", tokens)
	}
}
