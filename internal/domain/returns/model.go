// Package returns provides the ReturnRequest (RMA) document and its
// lifecycle: open -> approved -> received -> inspected -> credited.
package returns

import (
	"context"
	"fmt"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/entity"
	"rimshield/internal/core/id"
)

// Status is the RMA lifecycle state.
type Status string

const (
	StatusOpen      Status = "open"
	StatusApproved  Status = "approved"
	StatusReceived  Status = "received"
	StatusInspected Status = "inspected"
	StatusCredited  Status = "credited"
)

// IsValid checks if the status is a known Status.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusApproved, StatusReceived, StatusInspected, StatusCredited:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Next returns the only legal successor state.
// Credited is terminal and returns itself.
func (s Status) Next() Status {
	switch s {
	case StatusOpen:
		return StatusApproved
	case StatusApproved:
		return StatusReceived
	case StatusReceived:
		return StatusInspected
	case StatusInspected:
		return StatusCredited
	}
	return s
}

// CanTransitionTo checks if the status can advance to target.
// The lifecycle is linear: no backward transitions, no skipping.
func (s Status) CanTransitionTo(target Status) bool {
	return s != StatusCredited && s.Next() == target
}

// Item is an RMA line. Quantities are filled in as the return advances:
// qty_requested at creation, qty_received at goods-in, qty_credit and
// qty_restock at inspection.
type Item struct {
	ProductID    id.ID  `json:"product_id"`
	QtyRequested int    `json:"qty_requested"`
	QtyReceived  *int   `json:"qty_received,omitempty"`
	QtyCredit    *int   `json:"qty_credit,omitempty"`
	QtyRestock   *int   `json:"qty_restock,omitempty"`
	Condition    string `json:"condition,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// ReturnRequest is an RMA document.
// It is never physically deleted; credited is the terminal state.
type ReturnRequest struct {
	entity.BaseDocument

	RMANumber string `db:"rma_number" json:"rma_number"`
	Status    Status `db:"status" json:"status"`

	// Originating order
	OrderID     id.ID  `db:"order_id" json:"order_id"`
	OrderNumber string `db:"order_number" json:"order_number"`

	// Customer snapshot
	CustomerID   string `db:"customer_id" json:"customer_id"`
	CustomerName string `db:"customer_name" json:"customer_name"`
	Email        string `db:"email" json:"email"`

	Items []Item `db:"-" json:"items"`

	// Set when the RMA reaches credited
	CreditID     *id.ID `db:"credit_id" json:"credit_id,omitempty"`
	CreditNumber string `db:"credit_number" json:"credit_number,omitempty"`
}

// NewReturnRequest creates an open RMA for an order.
func NewReturnRequest(orderID id.ID, orderNumber, customerID, customerName, email string) *ReturnRequest {
	return &ReturnRequest{
		BaseDocument: entity.NewBaseDocument(),
		Status:       StatusOpen,
		OrderID:      orderID,
		OrderNumber:  orderNumber,
		CustomerID:   customerID,
		CustomerName: customerName,
		Email:        email,
		Items:        make([]Item, 0),
	}
}

// Validate implements entity.Validatable.
func (r *ReturnRequest) Validate(ctx context.Context) error {
	if !r.Status.IsValid() {
		return apperror.NewValidation("unknown RMA status").
			WithDetail("status", string(r.Status))
	}

	if id.IsNil(r.OrderID) {
		return apperror.NewValidation("order is required").
			WithDetail("field", "order_id")
	}

	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range r.Items {
		if id.IsNil(item.ProductID) {
			return lineError("product is required", i)
		}
		if item.QtyRequested <= 0 {
			return lineError("requested quantity must be positive", i)
		}
		if err := item.checkQuantityChain(); err != nil {
			return err.WithDetail("line_no", i+1)
		}
	}

	return nil
}

// checkQuantityChain enforces qty_restock <= qty_credit <= qty_received <= qty_requested
// for whichever quantities are populated.
func (it Item) checkQuantityChain() *apperror.AppError {
	upper := it.QtyRequested
	if it.QtyReceived != nil {
		if *it.QtyReceived < 0 {
			return apperror.NewValidation("received quantity cannot be negative").
				WithDetail("product_id", it.ProductID)
		}
		if *it.QtyReceived > upper {
			return apperror.NewValidation("received quantity exceeds requested quantity").
				WithDetail("product_id", it.ProductID)
		}
		upper = *it.QtyReceived
	}
	if it.QtyCredit != nil {
		if *it.QtyCredit < 0 {
			return apperror.NewValidation("credit quantity cannot be negative").
				WithDetail("product_id", it.ProductID)
		}
		if *it.QtyCredit > upper {
			return apperror.NewValidation("credit quantity exceeds received quantity").
				WithDetail("product_id", it.ProductID)
		}
		upper = *it.QtyCredit
	}
	if it.QtyRestock != nil {
		if *it.QtyRestock < 0 {
			return apperror.NewValidation("restock quantity cannot be negative").
				WithDetail("product_id", it.ProductID)
		}
		// A unit cannot go back on the shelf without being credited.
		if *it.QtyRestock > upper {
			return apperror.NewValidation("restock quantity exceeds credit quantity").
				WithDetail("product_id", it.ProductID)
		}
	}
	return nil
}

func lineError(msg string, idx int) *apperror.AppError {
	return apperror.NewValidation(msg).
		WithDetail("field", "items").
		WithDetail("line_no", idx+1)
}

// ReceivedItem is the goods-in payload for one line.
type ReceivedItem struct {
	ProductID   id.ID `json:"product_id"`
	QtyReceived int   `json:"qty_received"`
}

// InspectedItem is the inspection outcome for one line.
type InspectedItem struct {
	ProductID  id.ID  `json:"product_id"`
	QtyCredit  int    `json:"qty_credit"`
	QtyRestock int    `json:"qty_restock"`
	Condition  string `json:"condition,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ApplyReceived merges received quantities into matching items.
// Items not referenced keep their prior values.
func (r *ReturnRequest) ApplyReceived(items []ReceivedItem) error {
	for _, in := range items {
		if in.QtyReceived < 0 {
			return apperror.NewValidation("received quantity cannot be negative").
				WithDetail("product_id", in.ProductID)
		}
		item := r.findItem(in.ProductID)
		if item == nil {
			return apperror.NewValidation("product is not part of this RMA").
				WithDetail("product_id", in.ProductID)
		}
		if in.QtyReceived > item.QtyRequested {
			return apperror.NewValidation(
				fmt.Sprintf("received quantity %d exceeds requested quantity %d", in.QtyReceived, item.QtyRequested)).
				WithDetail("product_id", in.ProductID)
		}
		qty := in.QtyReceived
		item.QtyReceived = &qty
	}
	r.Touch()
	return nil
}

// ApplyInspection writes inspection outcomes onto matching items.
// qty_restock > qty_credit is rejected here, before any credit exists.
func (r *ReturnRequest) ApplyInspection(items []InspectedItem) error {
	for _, in := range items {
		if in.QtyCredit < 0 || in.QtyRestock < 0 {
			return apperror.NewValidation("inspection quantities cannot be negative").
				WithDetail("product_id", in.ProductID)
		}
		if in.QtyRestock > in.QtyCredit {
			return apperror.NewValidation("restock quantity exceeds credit quantity").
				WithDetail("product_id", in.ProductID)
		}
		item := r.findItem(in.ProductID)
		if item == nil {
			return apperror.NewValidation("product is not part of this RMA").
				WithDetail("product_id", in.ProductID)
		}
		received := 0
		if item.QtyReceived != nil {
			received = *item.QtyReceived
		}
		if in.QtyCredit > received {
			return apperror.NewValidation(
				fmt.Sprintf("credit quantity %d exceeds received quantity %d", in.QtyCredit, received)).
				WithDetail("product_id", in.ProductID)
		}
		credit := in.QtyCredit
		restock := in.QtyRestock
		item.QtyCredit = &credit
		item.QtyRestock = &restock
		item.Condition = in.Condition
		item.Reason = in.Reason
	}
	r.Touch()
	return nil
}

func (r *ReturnRequest) findItem(productID id.ID) *Item {
	for i := range r.Items {
		if r.Items[i].ProductID == productID {
			return &r.Items[i]
		}
	}
	return nil
}

// FindItem returns the RMA line for a product, or nil if absent.
func (r *ReturnRequest) FindItem(productID id.ID) *Item {
	return r.findItem(productID)
}
