package otp

import (
	"context"
	"database/sql"

	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

// SQLStore keeps pending codes in the login_codes table.
type SQLStore struct {
	DB *sql.DB
}

func (s SQLStore) Save(ctx context.Context, c *model.LoginCode) error {
	return store.SaveLoginCode(ctx, s.DB, c)
}

func (s SQLStore) Get(ctx context.Context, email string) (*model.LoginCode, error) {
	return store.GetLoginCode(ctx, s.DB, email)
}

func (s SQLStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	return store.IncrementLoginCodeAttempts(ctx, s.DB, email)
}

func (s SQLStore) Delete(ctx context.Context, email string) error {
	return store.DeleteLoginCode(ctx, s.DB, email)
}
