package dto

import (
	"rimshield/internal/core/id"
	"rimshield/internal/domain/returns"
)

// CreateReturnRequest is the new-RMA payload. Customer name and email are
// optional overrides; omitted, the order's own values are used.
type CreateReturnRequest struct {
	OrderNumber  string                  `json:"orderNumber" binding:"required"`
	CustomerName string                  `json:"customerName"`
	Email        string                  `json:"email" binding:"omitempty,email"`
	Items        []returns.RequestedLine `json:"items" binding:"required"`
}

// CreateReturnResponse reports the created RMA.
type CreateReturnResponse struct {
	Success   bool   `json:"success"`
	RMAID     string `json:"rma_id"`
	RMANumber string `json:"rma_number"`
}

// ApproveRequest advances an open RMA.
type ApproveRequest struct {
	RMAID id.ID `json:"rmaId" binding:"required"`
}

// ReceiveRequest records received quantities.
type ReceiveRequest struct {
	RMAID id.ID                  `json:"rmaId" binding:"required"`
	Items []returns.ReceivedItem `json:"items" binding:"required"`
}

// InspectRequest records inspection outcomes.
type InspectRequest struct {
	RMAID id.ID                   `json:"rmaId" binding:"required"`
	Items []returns.InspectedItem `json:"items" binding:"required"`
}
