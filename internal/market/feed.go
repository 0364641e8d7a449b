package market

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/erazemk/wildcat/internal/model"
)

// CategoryAll shows every category.
const CategoryAll = "All"

// Feed is the list of active listings, newest first, with a category filter
// applied locally.
type Feed struct {
	store ListingStore

	mu       sync.Mutex
	items    []model.Item
	category string
}

func NewFeed(store ListingStore) *Feed {
	return &Feed{store: store, category: CategoryAll}
}

// Refresh fetches the active listings. On failure the previous list is kept.
func (f *Feed) Refresh(ctx context.Context) error {
	items, err := f.store.ListItems(ctx, model.ItemQuery{Status: model.ItemStatusActive})
	if err != nil {
		slog.Warn("failed to load feed", "error", err)
		return err
	}
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return nil
}

// SetCategory changes the filter. An empty or unknown category shows everything.
func (f *Feed) SetCategory(category string) {
	if !model.ValidCategory(category) {
		category = CategoryAll
	}
	f.mu.Lock()
	f.category = category
	f.mu.Unlock()
}

// Category returns the current filter.
func (f *Feed) Category() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.category
}

// Items returns the fetched listings that match the filter, in fetch order.
func (f *Feed) Items() []model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.category == CategoryAll {
		return slices.Clone(f.items)
	}
	out := make([]model.Item, 0, len(f.items))
	for _, item := range f.items {
		if item.Category == f.category {
			out = append(out, item)
		}
	}
	return out
}

// ListingCreated resets the filter and reloads the feed.
func (f *Feed) ListingCreated(ctx context.Context, item *model.Item) {
	f.SetCategory(CategoryAll)
	if err := f.Refresh(ctx); err != nil {
		slog.Warn("feed not refreshed after new listing", "item", item.ID)
	}
}
