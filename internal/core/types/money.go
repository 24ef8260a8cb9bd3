// Package types provides common value types shared across the domain.
package types

import (
	"github.com/shopspring/decimal"

	"rimshield/internal/core/apperror"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to 2 decimal places, half away from zero.
// Every monetary rounding in the system goes through this function so that
// PDF totals and ledger postings agree to the cent.
func RoundMoney(m Money) Money {
	return m.Round(2)
}

// VATCategory is the canonical tax bracket for a line item.
// The numeric rate is configuration, not part of the category identity:
// a future rate change must not reclassify historical documents.
type VATCategory string

const (
	VATStandard VATCategory = "standard"
	VATReduced  VATCategory = "reduced"
	VATZero     VATCategory = "zero"
)

// IsValid reports whether c is a known category.
func (c VATCategory) IsValid() bool {
	switch c {
	case VATStandard, VATReduced, VATZero:
		return true
	}
	return false
}

func (c VATCategory) String() string { return string(c) }

// ParseVATCategory validates a category string.
func ParseVATCategory(s string) (VATCategory, error) {
	c := VATCategory(s)
	if !c.IsValid() {
		return "", apperror.NewValidation("unknown VAT category").
			WithDetail("vat_category", s)
	}
	return c, nil
}

// VATRates maps categories to fractional rates (e.g. 0.21).
type VATRates map[VATCategory]Money

// DefaultVATRates returns the Dutch brackets used by the storefront.
func DefaultVATRates() VATRates {
	return VATRates{
		VATStandard: decimal.New(21, -2),
		VATReduced:  decimal.New(9, -2),
		VATZero:     decimal.Zero,
	}
}

// Rate returns the fractional rate for a category, zero for unknown ones.
func (r VATRates) Rate(c VATCategory) Money {
	if rate, ok := r[c]; ok {
		return rate
	}
	return decimal.Zero
}
