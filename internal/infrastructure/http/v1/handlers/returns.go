package handlers

import (
	"github.com/gin-gonic/gin"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/domain/returns"
	"rimshield/internal/infrastructure/http/v1/dto"
)

// ReturnsHandler handles the RMA lifecycle and credit issuing.
type ReturnsHandler struct {
	*BaseHandler
	service *returns.Service
}

// NewReturnsHandler creates a new returns handler.
func NewReturnsHandler(service *returns.Service) *ReturnsHandler {
	return &ReturnsHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List returns all RMAs, newest first.
// GET /api/returns
func (h *ReturnsHandler) List(c *gin.Context) {
	rmas, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"returns": rmas})
}

// Get returns one RMA.
// GET /api/returns/:id
func (h *ReturnsHandler) Get(c *gin.Context) {
	rmaID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid rma id"))
		return
	}

	rma, err := h.service.GetByID(c.Request.Context(), rmaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rma)
}

// Create registers a new RMA.
// POST /api/returns
func (h *ReturnsHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rma, err := h.service.Create(c.Request.Context(), returns.CreateInput{
		OrderNumber:  req.OrderNumber,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Items:        req.Items,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.CreateReturnResponse{
		Success:   true,
		RMAID:     rma.ID.String(),
		RMANumber: rma.RMANumber,
	})
}

// Approve advances an open RMA to approved.
// POST /api/returns/approve
func (h *ReturnsHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Approve(c.Request.Context(), req.RMAID); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.OKResponse{OK: true})
}

// Receive records received quantities, approved -> received.
// POST /api/returns/receive
func (h *ReturnsHandler) Receive(c *gin.Context) {
	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Receive(c.Request.Context(), req.RMAID, req.Items); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.OKResponse{OK: true})
}

// Inspect records inspection outcomes, received -> inspected.
// POST /api/returns/inspect
func (h *ReturnsHandler) Inspect(c *gin.Context) {
	var req dto.InspectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Inspect(c.Request.Context(), req.RMAID, req.Items); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.OKResponse{OK: true})
}

// Credit issues a credit note and closes the referenced RMA.
// POST /api/returns/credit
func (h *ReturnsHandler) Credit(c *gin.Context) {
	var req dto.CreditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Credit(c.Request.Context(), returns.CreditInput{
		OrderID: req.OrderID,
		RMAID:   req.RMAID,
		Items:   req.Items,
		Restock: req.Restock,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CreditResponse{
		Success: true,
		Credit: dto.CreditRef{
			ID:           result.ID.String(),
			CreditNumber: result.CreditNumber,
			URL:          result.PDFURL,
		},
		Warnings: result.Warnings,
	})
}
