package client

import (
	"context"
	"net/url"

	"github.com/erazemk/wildcat/internal/model"
)

// ListItems returns items matching q, newest first, with sellers joined.
func (c *Client) ListItems(ctx context.Context, q model.ItemQuery) ([]model.Item, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.ExcludeStatus != "" {
		v.Set("exclude_status", q.ExcludeStatus)
	}
	if q.SellerID != "" {
		v.Set("seller_id", q.SellerID)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	path := "/api/items"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var items []model.Item
	if err := c.do(ctx, "GET", path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns one item.
func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, "GET", "/api/items/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem lists a new item for the current user.
func (c *Client) CreateItem(ctx context.Context, n model.NewListing) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, "POST", "/api/items", n, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies p to one of the current user's items.
func (c *Client) UpdateItem(ctx context.Context, id string, p model.ItemPatch) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, "PATCH", "/api/items/"+url.PathEscape(id), p, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ArchiveItem deletes one of the current user's items from every listing.
func (c *Client) ArchiveItem(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/api/items/"+url.PathEscape(id), nil, nil)
}

// GetProfile returns a profile. Other users' contact fields are blank.
func (c *Client) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, "GET", "/api/profiles/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies p to the user's own profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.Profile, error) {
	var out model.Profile
	if err := c.do(ctx, "PATCH", "/api/profiles/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
