package model

import (
	"strings"
	"testing"
)

func TestClampPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"-5", "0"},
		{"-0.01", "0"},
		{"0", "0"},
		{"12.50", "12.50"},
		{" 7 ", "7"},
		{"abc", "abc"},
	}

	for _, tt := range tests {
		if got := ClampPrice(tt.raw); got != tt.want {
			t.Errorf("ClampPrice(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDefaults(t *testing.T) {
	if DefaultCategory() != "Furniture" {
		t.Errorf("expected default category Furniture, got %q", DefaultCategory())
	}
	if DefaultCondition() != "Like New" {
		t.Errorf("expected default condition Like New, got %q", DefaultCondition())
	}
}

func TestFirstName(t *testing.T) {
	if got := FirstName("Stephen Curry", "Student"); got != "Stephen" {
		t.Errorf("expected Stephen, got %q", got)
	}
	if got := FirstName("  ", "Student"); got != "Student" {
		t.Errorf("expected fallback, got %q", got)
	}

	item := &Item{}
	if got := item.SellerFirstName("Davidson Student"); got != "Davidson Student" {
		t.Errorf("expected fallback for missing seller, got %q", got)
	}
}

func TestListingInputNegativePriceClamped(t *testing.T) {
	in := ListingInput{Title: "Desk", Price: "-5", Description: "Sturdy"}
	in.Normalize()

	if in.Price != "0" {
		t.Fatalf("expected price coerced to 0, got %q", in.Price)
	}
	price, err := in.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !price.IsZero() {
		t.Errorf("expected zero price, got %s", price)
	}
	if in.Category != DefaultCategory() || in.Condition != DefaultCondition() {
		t.Errorf("expected defaults, got %q / %q", in.Category, in.Condition)
	}
}

func TestListingInputValidation(t *testing.T) {
	valid := func() ListingInput {
		return ListingInput{
			Title:       "Calculus Textbook",
			Price:       "20",
			Description: "Barely used",
			Category:    "Books & Notes",
			Condition:   "Good",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ListingInput)
		field   string
		wantErr bool
	}{
		{"valid", func(*ListingInput) {}, "", false},
		{"blank title", func(in *ListingInput) { in.Title = "   " }, "Title", true},
		{"long title", func(in *ListingInput) { in.Title = strings.Repeat("x", 61) }, "Title", true},
		{"missing price", func(in *ListingInput) { in.Price = "" }, "Price", true},
		{"non-numeric price", func(in *ListingInput) { in.Price = "cheap" }, "Price", true},
		{"missing description", func(in *ListingInput) { in.Description = "" }, "Description", true},
		{"long description", func(in *ListingInput) { in.Description = strings.Repeat("x", 401) }, "Description", true},
		{"unknown category", func(in *ListingInput) { in.Category = "Tickets" }, "Category", true},
		{"unknown condition", func(in *ListingInput) { in.Condition = "Broken" }, "Condition", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			in.Normalize()
			_, err := in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ve.Field)
			}
			if ve.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestListingEditValidation(t *testing.T) {
	edit := ListingEdit{Title: "", Price: "10"}
	edit.Normalize()
	if _, err := edit.Validate(); err == nil {
		t.Error("expected error for empty title")
	}

	edit = ListingEdit{Title: "Lamp", Price: ""}
	if _, err := edit.Validate(); err == nil {
		t.Error("expected error for empty price")
	}

	edit = ListingEdit{Title: "Lamp", Price: "-3"}
	edit.Normalize()
	price, err := edit.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !price.IsZero() {
		t.Errorf("expected clamped price 0, got %s", price)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{"12", "12", false},
		{"12.5", "12.5", false},
		{"12.50", "12.5", false},
		{"9999999.99", "9999999.99", false},
		{"10000000", "", true},
		{"1e50000000", "", true},
		{"1E3", "", true},
		{"5.001", "", true},
		{".5", "", true},
		{"-1", "", true},
		{"+4", "", true},
		{"", "", true},
		{"cheap", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePrice(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePrice(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !IsValidation(err) {
				t.Errorf("ParsePrice(%q) expected *ValidationError, got %T", tt.raw, err)
			}
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParsePrice(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestExponentPriceRejected(t *testing.T) {
	in := ListingInput{Title: "Desk", Price: "1e50000000", Description: "Sturdy"}
	in.Normalize()
	if _, err := in.Validate(); err == nil {
		t.Fatal("expected exponent price to be rejected on create")
	}

	edit := ListingEdit{Title: "Desk", Price: "1e50000000"}
	edit.Normalize()
	_, err := edit.Validate()
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError on edit, got %v", err)
	}
	if ve.Field != "Price" {
		t.Errorf("expected field Price, got %q", ve.Field)
	}
}
