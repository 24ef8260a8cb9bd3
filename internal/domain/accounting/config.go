// Package accounting translates credit notes and paid orders into balanced
// ledger postings and pushes them to the e-Boekhouden bookkeeping service.
package accounting

import (
	"rimshield/internal/core/types"
)

// Accounts is the chart-of-accounts mapping, injected at construction.
// Business logic never reads account codes from the environment.
type Accounts struct {
	// Revenue per VAT bracket
	RevenueStandard string
	RevenueReduced  string
	RevenueZero     string

	// VAT payable per bracket
	VATStandard string
	VATReduced  string

	// Balance sheet
	Debtors   string
	Inventory string

	// Profit and loss
	COGS     string
	WriteOff string
}

// DefaultAccounts returns the ledger codes used by the webshop administration.
func DefaultAccounts() Accounts {
	return Accounts{
		RevenueStandard: "8000",
		RevenueReduced:  "8010",
		RevenueZero:     "8020",
		VATStandard:     "1630",
		VATReduced:      "1635",
		Debtors:         "1300",
		Inventory:       "3000",
		COGS:            "7000",
		WriteOff:        "7900",
	}
}

// Revenue returns the revenue account for a VAT category.
func (a Accounts) Revenue(cat types.VATCategory) string {
	switch cat {
	case types.VATStandard:
		return a.RevenueStandard
	case types.VATReduced:
		return a.RevenueReduced
	default:
		return a.RevenueZero
	}
}

// VAT returns the VAT-payable account for a category, empty for zero-rated.
func (a Accounts) VAT(cat types.VATCategory) string {
	switch cat {
	case types.VATStandard:
		return a.VATStandard
	case types.VATReduced:
		return a.VATReduced
	default:
		return ""
	}
}

// VATCode returns the e-Boekhouden BTW code for a category.
func VATCode(cat types.VATCategory) string {
	switch cat {
	case types.VATStandard:
		return "HOOG_VERK_21"
	case types.VATReduced:
		return "LAAG_VERK_9"
	default:
		return "GEEN"
	}
}

// Config holds everything the sync adapter needs beyond its collaborators.
type Config struct {
	Accounts Accounts
	Rates    types.VATRates
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Accounts: DefaultAccounts(),
		Rates:    types.DefaultVATRates(),
	}
}
