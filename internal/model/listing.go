package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ListingInput is the form data of a new listing.
type ListingInput struct {
	Title       string `json:"title" validate:"required,max=60"`
	Price       string `json:"price" validate:"required,price"`
	Description string `json:"description" validate:"required,max=400"`
	Category    string `json:"category" validate:"required,category"`
	Condition   string `json:"condition" validate:"required,condition"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	ShowPhone   bool   `json:"show_phone"`
}

// ListingEdit is the subset of fields the owner can change from the inventory.
type ListingEdit struct {
	Title string `json:"title" validate:"required,max=60"`
	Price string `json:"price" validate:"required,price"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	rules := map[string]validator.Func{
		"price": func(fl validator.FieldLevel) bool {
			_, err := ParsePrice(fl.Field().String())
			return err == nil
		},
		"category": func(fl validator.FieldLevel) bool {
			return ValidCategory(fl.Field().String())
		},
		"condition": func(fl validator.FieldLevel) bool {
			return ValidCondition(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %q validation: %v", tag, err))
		}
	}
	return v
}

// MaxPrice is the exclusive upper bound of a listing price.
var MaxPrice = decimal.NewFromInt(10_000_000)

const invalidPriceMessage = "Price must be an amount like 12 or 12.50"

// pricePattern is up to seven whole digits and two decimals. Exponent forms
// like "1e9" are refused before decimal parsing sees them.
var pricePattern = regexp.MustCompile(`^\d{1,7}(\.\d{1,2})?$`)

// ParsePrice parses a clamped price. It accepts only non-negative amounts
// below MaxPrice with at most two decimals; anything else is a *ValidationError.
func ParsePrice(raw string) (decimal.Decimal, error) {
	invalid := &ValidationError{Field: "Price", Message: invalidPriceMessage}
	if !pricePattern.MatchString(raw) {
		return decimal.Zero, invalid
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() || !d.LessThan(MaxPrice) {
		return decimal.Zero, invalid
	}
	return d, nil
}

// Normalize trims text fields, clamps the price and fills in default
// category and condition.
func (in *ListingInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Price = ClampPrice(in.Price)
	if in.Category == "" {
		in.Category = DefaultCategory()
	}
	if in.Condition == "" {
		in.Condition = DefaultCondition()
	}
}

// Validate checks the input and returns the parsed price.
func (in *ListingInput) Validate() (decimal.Decimal, error) {
	if err := validate.Struct(in); err != nil {
		return decimal.Zero, translate(err)
	}
	return ParsePrice(in.Price)
}

// Normalize trims the title and clamps the price.
func (e *ListingEdit) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.Price = ClampPrice(e.Price)
}

// Validate checks the edit and returns the parsed price.
func (e *ListingEdit) Validate() (decimal.Decimal, error) {
	if err := validate.Struct(e); err != nil {
		return decimal.Zero, translate(err)
	}
	return ParsePrice(e.Price)
}

// ValidationError is a user-facing message for one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var fieldLabels = map[string]string{
	"Title":       "a title",
	"Price":       "a price",
	"Description": "a description",
	"Category":    "a category",
	"Condition":   "a condition",
	"Phone":       "a phone number",
}

// translate turns the first validator failure into a short message.
func translate(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	label := fieldLabels[fe.Field()]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "Please enter " + label
	case "max":
		msg = fmt.Sprintf("%s is too long (max %s characters)", strings.TrimPrefix(strings.TrimPrefix(label, "a "), "an "), fe.Param())
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	case "price":
		msg = invalidPriceMessage
	default:
		msg = "Please choose " + label
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
