package market

import (
	"context"
	"sync"

	"github.com/erazemk/wildcat/internal/model"
)

// Inventory is a seller's own listings, newest first, without archived ones.
// Changes are applied optimistically and reconciled against the store.
type Inventory struct {
	store    ListingStore
	sellerID string
	list     *Reconciler[model.Item]

	mu      sync.Mutex
	editing string
}

// NewInventory returns the inventory of sellerID. Call Load to fetch it.
func NewInventory(store ListingStore, sellerID string) *Inventory {
	inv := &Inventory{store: store, sellerID: sellerID}
	inv.list = NewReconciler(func(ctx context.Context) ([]model.Item, error) {
		return store.ListItems(ctx, model.ItemQuery{
			SellerID:      sellerID,
			ExcludeStatus: model.ItemStatusArchived,
		})
	})
	return inv
}

func (inv *Inventory) Load(ctx context.Context) error {
	return inv.list.Load(ctx)
}

func (inv *Inventory) Items() []model.Item {
	return inv.list.Items()
}

// BeginEdit opens the edit form for id. Only one listing can be edited at a time.
func (inv *Inventory) BeginEdit(id string) error {
	if _, ok := inv.find(id); !ok {
		return ErrNotFound
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.editing != "" && inv.editing != id {
		return ErrEditInProgress
	}
	inv.editing = id
	return nil
}

// Editing returns the ID of the listing being edited, or "".
func (inv *Inventory) Editing() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.editing
}

// CancelEdit closes the edit form without saving.
func (inv *Inventory) CancelEdit() {
	inv.mu.Lock()
	inv.editing = ""
	inv.mu.Unlock()
}

// SaveEdit saves a new title and price for the listing being edited. The
// form stays open when validation or the update fails.
func (inv *Inventory) SaveEdit(ctx context.Context, title, price string) error {
	id := inv.Editing()
	if id == "" {
		return ErrNotFound
	}
	edit := model.ListingEdit{Title: title, Price: price}
	edit.Normalize()
	parsed, err := edit.Validate()
	if err != nil {
		return err
	}

	err = inv.list.Apply(ctx,
		func(items []model.Item) []model.Item {
			for i := range items {
				if items[i].ID == id {
					items[i].Title = edit.Title
					items[i].Price = parsed
				}
			}
			return items
		},
		func(ctx context.Context) error {
			_, err := inv.store.UpdateItem(ctx, id, model.ItemPatch{Title: &edit.Title, Price: &parsed})
			return err
		},
	)
	if err != nil {
		return err
	}
	inv.CancelEdit()
	return nil
}

// MarkSold marks a listing as sold.
func (inv *Inventory) MarkSold(ctx context.Context, id string) error {
	if _, ok := inv.find(id); !ok {
		return ErrNotFound
	}
	sold := model.ItemStatusSold
	return inv.list.Apply(ctx,
		func(items []model.Item) []model.Item {
			for i := range items {
				if items[i].ID == id {
					items[i].Status = sold
				}
			}
			return items
		},
		func(ctx context.Context) error {
			_, err := inv.store.UpdateItem(ctx, id, model.ItemPatch{Status: &sold})
			return err
		},
	)
}

// Delete removes a listing. It is archived in the store, not erased.
func (inv *Inventory) Delete(ctx context.Context, id string) error {
	if _, ok := inv.find(id); !ok {
		return ErrNotFound
	}
	err := inv.list.Apply(ctx,
		func(items []model.Item) []model.Item {
			out := items[:0]
			for _, item := range items {
				if item.ID != id {
					out = append(out, item)
				}
			}
			return out
		},
		func(ctx context.Context) error {
			return inv.store.ArchiveItem(ctx, id)
		},
	)
	if err == nil {
		inv.mu.Lock()
		if inv.editing == id {
			inv.editing = ""
		}
		inv.mu.Unlock()
	}
	return err
}

func (inv *Inventory) find(id string) (model.Item, bool) {
	for _, item := range inv.list.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return model.Item{}, false
}
