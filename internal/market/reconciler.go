package market

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Reconciler keeps a local copy of a remote list. Mutations are applied
// locally first and confirmed remotely; when confirmation fails the local
// copy is replaced with a fresh fetch.
type Reconciler[T any] struct {
	fetch func(context.Context) ([]T, error)

	mu    sync.Mutex
	items []T
}

// NewReconciler returns a Reconciler that loads its list with fetch.
func NewReconciler[T any](fetch func(context.Context) ([]T, error)) *Reconciler[T] {
	return &Reconciler[T]{fetch: fetch}
}

// Load replaces the local list with the remote one. On error the local list is kept.
func (r *Reconciler[T]) Load(ctx context.Context) error {
	items, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
}

// Items returns a copy of the local list.
func (r *Reconciler[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// Apply runs local on a copy of the list, stores the result and then calls
// remote. If remote fails the list is reloaded and remote's error returned.
func (r *Reconciler[T]) Apply(ctx context.Context, local func([]T) []T, remote func(context.Context) error) error {
	r.mu.Lock()
	r.items = local(slices.Clone(r.items))
	r.mu.Unlock()

	err := remote(ctx)
	if err == nil {
		return nil
	}
	if lerr := r.Load(ctx); lerr != nil {
		slog.Warn("failed to reload after rejected change", "error", lerr)
		return errors.Join(err, lerr)
	}
	return err
}
