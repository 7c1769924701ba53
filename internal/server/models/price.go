package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/shopspring/decimal"
)

const (
	priceDecimalPlaces = 2
	priceMaxDigits     = 5
)

var priceLimit = decimal.New(1, priceMaxDigits-priceDecimalPlaces)

// Price is a non-negative amount with two fraction digits, stored as
// NUMERIC(5,2). It is rendered as a JSON string with exactly two fraction
// digits ("10.40") and accepts either a JSON string or number on input.
type Price struct {
	d decimal.Decimal
}

// ParsePrice parses s and checks it fits the column.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, common.NewValidationError("price", "A valid number is required.")
	}
	p := Price{d: d}
	if err := p.Validate(); err != nil {
		return Price{}, err
	}
	return p, nil
}

// MustPrice is ParsePrice for literals known to be valid.
func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate rejects negative values, more than two fraction digits and values
// that do not fit five significant digits.
func (p Price) Validate() error {
	switch {
	case p.d.IsNegative():
		return common.NewValidationError("price", "Ensure this value is greater than or equal to 0.")
	case !p.d.Equal(p.d.Round(priceDecimalPlaces)):
		return common.NewValidationError("price", fmt.Sprintf("Ensure that there are no more than %d decimal places.", priceDecimalPlaces))
	case p.d.GreaterThanOrEqual(priceLimit):
		return common.NewValidationError("price", fmt.Sprintf("Ensure that there are no more than %d digits in total.", priceMaxDigits))
	}
	return nil
}

func (p Price) String() string {
	return p.d.StringFixed(priceDecimalPlaces)
}

func (p Price) Equal(o Price) bool {
	return p.d.Equal(o.d)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return common.NewValidationError("price", "This field may not be null.")
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return common.NewValidationError("price", "A valid number is required.")
	}
	p.d = d
	return nil
}

// Value stores the price as its fixed two-digit text form.
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

func (p *Price) Scan(src any) error {
	return p.d.Scan(src)
}
