// Package orders provides read access to storefront orders.
// The returns workflow never mutates order items; it reads them to seed
// credit-note lines (historical prices) and COGS postings (historical cost).
package orders

import (
	"time"

	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
)

// PaymentStatus values as recorded by the storefront checkout.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Order is a storefront order.
type Order struct {
	ID            id.ID     `db:"id" json:"id"`
	OrderNumber   string    `db:"order_number" json:"order_number"`
	CustomerID    string    `db:"customer_id" json:"customer_id"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	Email         string    `db:"email" json:"email"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
	Items         []Item    `db:"-" json:"items"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// Bookkeeping sync outcome for the sales invoice + COGS memorial.
	Sync *SyncState `db:"-" json:"eboekhouden_sync,omitempty"`
}

// Item is an order line with the prices in effect at purchase time.
type Item struct {
	ProductID   id.ID             `json:"product_id"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	UnitPrice   types.Money       `json:"unit_price"`
	CostPrice   types.Money       `json:"cost_price"`
	VATCategory types.VATCategory `json:"vat_category"`
}

// SyncStatus values for bookkeeping sync.
const (
	SyncPending = "pending"
	SyncSuccess = "success"
	SyncError   = "error"
)

// SyncState records the outcome of pushing this order to bookkeeping.
type SyncState struct {
	Status         string     `json:"status"`
	VerkoopMutatie int64      `json:"verkoop_mutatie_id,omitempty"`
	CogsMutatie    int64      `json:"cogs_mutatie_id,omitempty"`
	SyncTimestamp  *time.Time `json:"sync_timestamp,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// IsSynced reports whether the order was already pushed successfully.
func (o *Order) IsSynced() bool {
	return o.Sync != nil && o.Sync.Status == SyncSuccess
}

// FindItem returns the order line for a product, or nil if absent.
func (o *Order) FindItem(productID id.ID) *Item {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}
