// Package market holds the client-side state of the marketplace: the session
// provider, the feed, the listing editor, the seller's inventory and the
// session gate that defers guest actions until login.
//
// Components talk to the backend only through the gateway interfaces below,
// which *client.Client implements.
package market

import (
	"context"
	"errors"

	"github.com/erazemk/wildcat/internal/model"
)

var (
	ErrNotAuthenticated = errors.New("you need to log in first")
	ErrCompressing      = errors.New("photos are still being processed")
	ErrTooManyImages    = errors.New("a listing can have at most 3 photos")
	ErrEditInProgress   = errors.New("another listing is being edited")
	ErrNotFound         = errors.New("listing not found")
)

// AuthGateway issues and verifies login codes and owns the session.
type AuthGateway interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*model.Session, error)
	Session(ctx context.Context) (*model.Session, error)
	OnChange(fn func(*model.Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// ListingStore reads and writes items and profiles.
type ListingStore interface {
	ListItems(ctx context.Context, q model.ItemQuery) ([]model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	CreateItem(ctx context.Context, n model.NewListing) (*model.Item, error)
	UpdateItem(ctx context.Context, id string, p model.ItemPatch) (*model.Item, error)
	ArchiveItem(ctx context.Context, id string) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.Profile, error)
}

// ObjectStore uploads blobs and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

// Notifier is told about listings created through the Editor.
type Notifier interface {
	ListingCreated(ctx context.Context, item *model.Item)
}
