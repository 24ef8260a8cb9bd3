package handlers

import (
	"github.com/gin-gonic/gin"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/domain/credits"
)

// CreditsHandler exposes issued credit notes, including their bookkeeping
// sync state.
type CreditsHandler struct {
	*BaseHandler
	service *credits.Service
}

// NewCreditsHandler creates a new credits handler.
func NewCreditsHandler(service *credits.Service) *CreditsHandler {
	return &CreditsHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List returns all credit notes, newest first.
// GET /api/credits
func (h *CreditsHandler) List(c *gin.Context) {
	notes, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"credits": notes})
}

// Get returns one credit note.
// GET /api/credits/:id
func (h *CreditsHandler) Get(c *gin.Context) {
	creditID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid credit id"))
		return
	}

	note, err := h.service.GetByID(c.Request.Context(), creditID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, note)
}
