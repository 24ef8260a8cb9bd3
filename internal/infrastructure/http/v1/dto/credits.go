package dto

import (
	"rimshield/internal/core/id"
	"rimshield/internal/domain/credits"
)

// CreditRequest issues a credit note, optionally closing an RMA.
type CreditRequest struct {
	OrderID id.ID                   `json:"orderId" binding:"required"`
	RMAID   *id.ID                  `json:"rmaId"`
	Items   []credits.RequestedItem `json:"items" binding:"required"`
	Restock bool                    `json:"restock"`
}

// CreditResponse reports the created credit note.
type CreditResponse struct {
	Success  bool      `json:"success"`
	Credit   CreditRef `json:"credit"`
	Warnings []string  `json:"warnings,omitempty"`
}

// CreditRef identifies a credit note and its PDF.
type CreditRef struct {
	ID           string `json:"id"`
	CreditNumber string `json:"credit_number"`
	URL          string `json:"url"`
}
