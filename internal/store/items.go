package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/wildcat/internal/model"
)

const itemColumns = `i.id, i.seller_id, i.title, i.price, i.description, i.category, i.condition,
	i.images, i.display_phone, i.status, i.created_at, p.full_name, p.avatar_url`

// CreateItem inserts a new Active item for the seller.
func CreateItem(ctx context.Context, db *sql.DB, sellerID string, n model.NewListing) (*model.Item, error) {
	images := n.Images
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encoding item images: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, seller_id, title, price, description, category, condition, images, display_phone, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sellerID, n.Title, n.Price.String(), n.Description, n.Category, n.Condition,
		string(encoded), n.DisplayPhone, model.ItemStatusActive, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID with its seller joined.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i LEFT JOIN profiles p ON p.id = i.seller_id
		 WHERE i.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching f, newest first.
func ListItems(ctx context.Context, db *sql.DB, f model.ItemQuery) ([]model.Item, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "i.status = ?")
		args = append(args, f.Status)
	}
	if f.ExcludeStatus != "" {
		where = append(where, "i.status <> ?")
		args = append(args, f.ExcludeStatus)
	}
	if f.SellerID != "" {
		where = append(where, "i.seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.Category != "" {
		where = append(where, "i.category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT ` + itemColumns + ` FROM items i LEFT JOIN profiles p ON p.id = i.seller_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.created_at DESC, i.rowid DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies the non-nil fields of u to the seller's item.
// It returns false when no item with that ID belongs to sellerID or the item
// is archived. Archived is terminal.
func UpdateItem(ctx context.Context, db *sql.DB, id, sellerID string, u model.ItemPatch) (bool, error) {
	var price *string
	if u.Price != nil {
		s := u.Price.String()
		price = &s
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET
		     title  = COALESCE(?, title),
		     price  = COALESCE(?, price),
		     status = COALESCE(?, status)
		 WHERE id = ? AND seller_id = ? AND status <> ?`,
		u.Title, price, u.Status, id, sellerID, model.ItemStatusArchived,
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	return n > 0, nil
}

// ArchiveItem moves the seller's item to Archived. The row is kept.
func ArchiveItem(ctx context.Context, db *sql.DB, id, sellerID string) (bool, error) {
	status := model.ItemStatusArchived
	return UpdateItem(ctx, db, id, sellerID, model.ItemPatch{Status: &status})
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var price, images string
	var phone, sellerName, sellerAvatar sql.NullString
	err := row.Scan(&item.ID, &item.SellerID, &item.Title, &price, &item.Description,
		&item.Category, &item.Condition, &images, &phone, &item.Status, &item.CreatedAt,
		&sellerName, &sellerAvatar)
	if err != nil {
		return nil, err
	}

	item.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", price, err)
	}
	if err := json.Unmarshal([]byte(images), &item.Images); err != nil {
		return nil, fmt.Errorf("parsing images: %w", err)
	}
	if item.Images == nil {
		item.Images = []string{}
	}
	item.DisplayPhone = nullToPtr(phone)
	// A seller row always exists (foreign key); the name may still be unset.
	item.Seller = &model.Seller{FullName: sellerName.String, AvatarURL: nullToPtr(sellerAvatar)}
	return &item, nil
}
