package dyntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Settings record layout shared with the admin settings page.
const (
	OptionName    = "wc_dynamic_taxes"
	FieldName     = "wc_dynamic_taxes_name"
	FieldAmount   = "wc_dynamic_taxes_amount"
	FieldCategory = "wc_dynamic_taxes_category"
)

// ErrMalformedRule is returned when a stored rule has a category but an unusable field.
var ErrMalformedRule = errors.New("dyntax: malformed rule")

// TaxRule is the single admin-configured fee rule.
type TaxRule struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	CategoryID *int64          `json:"categoryId"`
}

// Active reports whether the rule targets a category.
func (r TaxRule) Active() bool {
	return r.CategoryID != nil
}

// RuleFromValues decodes the flat settings record. A missing record or an empty
// category yields an inactive rule without error.
func RuleFromValues(values map[string]string) (TaxRule, error) {
	if len(values) == 0 {
		return TaxRule{}, nil
	}
	rule := TaxRule{Name: values[FieldName]}

	rawAmount := strings.TrimSpace(values[FieldAmount])
	amount, amountErr := decimal.NewFromString(rawAmount)
	if amountErr == nil {
		rule.Amount = amount
	}

	// An inactive rule still reports its stored amount; a bad one stays zero.
	rawCategory := strings.TrimSpace(values[FieldCategory])
	if rawCategory == "" {
		return rule, nil
	}
	categoryID, err := strconv.ParseInt(rawCategory, 10, 64)
	if err != nil || categoryID <= 0 {
		return rule, fmt.Errorf("%w: category %q", ErrMalformedRule, rawCategory)
	}
	if amountErr != nil {
		return rule, fmt.Errorf("%w: amount %q", ErrMalformedRule, rawAmount)
	}

	rule.CategoryID = &categoryID
	return rule, nil
}
