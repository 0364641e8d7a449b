package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a marketplace listing.
type Item struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Condition    string          `json:"condition"`
	Images       []string        `json:"images"`
	SellerID     string          `json:"seller_id"`
	DisplayPhone *string         `json:"display_phone"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`

	// Joined fields (only populated when requested).
	Seller *Seller `json:"seller,omitempty"`
}

// Seller is the public part of a seller's profile joined onto an item.
type Seller struct {
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// Item statuses.
const (
	ItemStatusActive   = "Active"
	ItemStatusSold     = "Sold"
	ItemStatusArchived = "Archived"
)

// MaxImages is the number of photos a listing can carry.
const MaxImages = 3

// Categories is the fixed set of listing categories. The first entry is the default.
var Categories = []string{
	"Furniture",
	"Electronics",
	"Books & Notes",
	"Clothing",
	"Appliances",
	"Dorm Essentials",
	"Services",
	"Other",
}

// Conditions is the fixed set of item conditions. The second entry is the default.
var Conditions = []string{"New", "Like New", "Good", "Fair"}

// DefaultCategory returns the category preselected on a new listing.
func DefaultCategory() string { return Categories[0] }

// DefaultCondition returns the condition preselected on a new listing.
func DefaultCondition() string { return Conditions[1] }

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool {
	return s == ItemStatusActive || s == ItemStatusSold || s == ItemStatusArchived
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidCondition reports whether c is one of Conditions.
func ValidCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}

// ClampPrice normalizes raw price input. Empty input stays empty, anything that
// parses as a negative number becomes "0", everything else is returned as typed.
func ClampPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	if d.IsNegative() {
		return "0"
	}
	return raw
}

// SellerFirstName returns the first word of the seller's name, or fallback when unknown.
func (i *Item) SellerFirstName(fallback string) string {
	if i.Seller == nil {
		return fallback
	}
	return FirstName(i.Seller.FullName, fallback)
}

// FirstName returns the first word of a full name, or fallback when the name is blank.
func FirstName(fullName, fallback string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}
