// Package credits provides the credit note document and its generator.
// A credit note is issued against an original order, optionally via an RMA,
// and always prices its lines from the order's historical item records.
package credits

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/entity"
	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
)

// Line is a credit note line. Unit price and VAT category are copied from
// the original order line, never recomputed from the live catalog.
type Line struct {
	ProductID   id.ID             `json:"product_id"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	UnitPrice   types.Money       `json:"unit_price"`
	VATCategory types.VATCategory `json:"vat_category"`
}

// Net returns the rounded net amount of the line.
func (l Line) Net() types.Money {
	return types.RoundMoney(l.UnitPrice.Mul(intToMoney(l.Quantity)))
}

// SyncStatus values for bookkeeping sync.
const (
	SyncPending = "pending"
	SyncSuccess = "success"
	SyncError   = "error"
)

// SyncState records the outcome of pushing this credit note to bookkeeping.
// Absent until the first sync attempt.
type SyncState struct {
	Status        string     `json:"status"`
	CreditMutatie int64      `json:"credit_mutatie_id,omitempty"`
	SyncTimestamp *time.Time `json:"sync_timestamp,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// CreditNote is a persisted, numbered, PDF-backed credit document.
type CreditNote struct {
	entity.BaseDocument

	CreditNumber string `db:"credit_number" json:"credit_number"`

	OrderID     id.ID  `db:"order_id" json:"order_id"`
	OrderNumber string `db:"order_number" json:"order_number"`

	// RMAID is nil for credits issued without a return.
	RMAID *id.ID `db:"rma_id" json:"rma_id,omitempty"`

	CustomerName string `db:"customer_name" json:"customer_name"`
	Email        string `db:"email" json:"email"`

	Items []Line `db:"-" json:"items"`

	PDFURL string `db:"pdf_url" json:"pdf_url"`

	Sync *SyncState `db:"-" json:"eboekhouden_sync,omitempty"`
}

// Validate implements entity.Validatable.
func (n *CreditNote) Validate(ctx context.Context) error {
	if id.IsNil(n.OrderID) {
		return apperror.NewValidation("order is required").
			WithDetail("field", "order_id")
	}
	if len(n.Items) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}
	for i, line := range n.Items {
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("line_no", i+1)
		}
		if !line.VATCategory.IsValid() {
			return apperror.NewValidation("unknown VAT category").
				WithDetail("field", "items").
				WithDetail("line_no", i+1)
		}
	}
	return nil
}

// IsSynced reports whether the note was already pushed successfully.
// A synced note is never re-posted.
func (n *CreditNote) IsSynced() bool {
	return n.Sync != nil && n.Sync.Status == SyncSuccess
}

// Totals holds document totals broken down per VAT category.
type Totals struct {
	NetByCategory map[types.VATCategory]types.Money
	VATByCategory map[types.VATCategory]types.Money
	Net           types.Money
	VAT           types.Money
	Gross         types.Money
}

// ComputeTotals sums line nets per category and applies the given rates.
// Each per-category figure is rounded before summing so the grand totals are
// exactly the sums of the figures shown on the PDF.
func (n *CreditNote) ComputeTotals(rates types.VATRates) Totals {
	t := Totals{
		NetByCategory: make(map[types.VATCategory]types.Money),
		VATByCategory: make(map[types.VATCategory]types.Money),
		Net:           types.Zero(),
		VAT:           types.Zero(),
	}

	for _, line := range n.Items {
		cat := line.VATCategory
		net, ok := t.NetByCategory[cat]
		if !ok {
			net = types.Zero()
		}
		t.NetByCategory[cat] = net.Add(line.Net())
	}

	for cat, net := range t.NetByCategory {
		vat := types.RoundMoney(net.Mul(rates.Rate(cat)))
		t.VATByCategory[cat] = vat
		t.Net = t.Net.Add(net)
		t.VAT = t.VAT.Add(vat)
	}

	t.Gross = t.Net.Add(t.VAT)
	return t
}

func intToMoney(v int) types.Money {
	return decimal.NewFromInt(int64(v))
}
