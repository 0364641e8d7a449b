package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/wildcat/internal/model"
)

var activeQuery = model.ItemQuery{Status: model.ItemStatusActive}

func feedItems() []model.Item {
	return []model.Item{
		{ID: "1", Title: "Lamp", Category: "Dorm Essentials"},
		{ID: "2", Title: "Couch", Category: "Furniture"},
		{ID: "3", Title: "Physics", Category: "Books & Notes"},
		{ID: "4", Title: "Desk", Category: "Furniture"},
	}
}

func TestFeedFilterIsLocal(t *testing.T) {
	store := &mockStore{}
	store.On("ListItems", mock.Anything, activeQuery).Return(feedItems(), nil).Once()

	f := NewFeed(store)
	require.NoError(t, f.Refresh(context.Background()))

	f.SetCategory("Furniture")
	got := f.Items()
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "4", got[1].ID)

	f.SetCategory(CategoryAll)
	assert.Equal(t, feedItems(), f.Items())

	f.SetCategory("Tickets")
	assert.Equal(t, CategoryAll, f.Category())

	store.AssertNumberOfCalls(t, "ListItems", 1)
}

func TestFeedRefreshFailureKeepsList(t *testing.T) {
	store := &mockStore{}
	store.On("ListItems", mock.Anything, activeQuery).Return(feedItems(), nil).Once()
	store.On("ListItems", mock.Anything, activeQuery).Return(nil, errors.New("offline")).Once()

	f := NewFeed(store)
	require.NoError(t, f.Refresh(context.Background()))
	assert.Error(t, f.Refresh(context.Background()))
	assert.Len(t, f.Items(), 4)
}

func TestFeedEmptyOnFirstFailure(t *testing.T) {
	store := &mockStore{}
	store.On("ListItems", mock.Anything, activeQuery).Return(nil, errors.New("offline"))

	f := NewFeed(store)
	assert.Error(t, f.Refresh(context.Background()))
	assert.Empty(t, f.Items())
}

func TestFeedListingCreatedResetsFilter(t *testing.T) {
	store := &mockStore{}
	store.On("ListItems", mock.Anything, activeQuery).Return(feedItems()[:1], nil).Once()
	store.On("ListItems", mock.Anything, activeQuery).Return(feedItems(), nil).Once()

	f := NewFeed(store)
	require.NoError(t, f.Refresh(context.Background()))
	f.SetCategory("Books & Notes")

	f.ListingCreated(context.Background(), &model.Item{ID: "4"})
	assert.Equal(t, CategoryAll, f.Category())
	assert.Len(t, f.Items(), 4)
}
