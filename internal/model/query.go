package model

import "github.com/shopspring/decimal"

// ItemQuery filters item listings. Zero fields do not filter.
type ItemQuery struct {
	Status        string
	ExcludeStatus string
	SellerID      string
	Category      string
}

// NewListing holds the fields a seller provides when listing an item.
type NewListing struct {
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Condition    string          `json:"condition"`
	Images       []string        `json:"images"`
	DisplayPhone *string         `json:"display_phone"`
}

// ItemPatch lists the item fields to change. Nil fields are left as they are.
type ItemPatch struct {
	Title  *string          `json:"title,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Status *string          `json:"status,omitempty"`
}

// ProfilePatch lists the profile fields to change. Nil fields are left as they are.
type ProfilePatch struct {
	FullName    *string `json:"full_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}
