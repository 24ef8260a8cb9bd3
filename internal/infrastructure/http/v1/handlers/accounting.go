package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"rimshield/internal/domain/accounting"
	"rimshield/internal/infrastructure/eboekhouden"
	"rimshield/internal/infrastructure/http/v1/dto"
)

// AccountingHandler handles bookkeeping sync and diagnostics.
type AccountingHandler struct {
	*BaseHandler
	service *accounting.SyncService
	client  *eboekhouden.Client
}

// NewAccountingHandler creates a new accounting handler.
func NewAccountingHandler(service *accounting.SyncService, client *eboekhouden.Client) *AccountingHandler {
	return &AccountingHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		client:      client,
	}
}

// SyncCredit pushes one credit note to bookkeeping.
// POST /api/accounting/sync-credit
func (h *AccountingHandler) SyncCredit(c *gin.Context) {
	var req dto.SyncCreditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.SyncCredit(c.Request.Context(), req.CreditID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SyncCreditResponse{OK: true, Already: result.Already})
}

// SyncOrder pushes one paid order to bookkeeping.
// POST /api/accounting/sync-order
func (h *AccountingHandler) SyncOrder(c *gin.Context) {
	var req dto.SyncOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.SyncOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SyncOrderResponse{
		OK:             true,
		Already:        result.Already,
		VerkoopMutatie: result.VerkoopMutatie,
		CogsMutatie:    result.CogsMutatie,
	})
}

// Ledgers returns the bookkeeping chart of accounts, for checking that
// configured account codes actually exist.
// GET /api/accounting/eboekhouden/ledgers
func (h *AccountingHandler) Ledgers(c *gin.Context) {
	h.diagnostic(c, "ledgers", func(ctx context.Context, session string) (any, error) {
		return h.client.GetLedgerAccounts(ctx, session)
	})
}

// Relations returns bookkeeping relation records.
// GET /api/accounting/eboekhouden/relations
func (h *AccountingHandler) Relations(c *gin.Context) {
	h.diagnostic(c, "relations", func(ctx context.Context, session string) (any, error) {
		return h.client.GetRelations(ctx, session)
	})
}

// Articles returns bookkeeping article records.
// GET /api/accounting/eboekhouden/articles
func (h *AccountingHandler) Articles(c *gin.Context) {
	h.diagnostic(c, "articles", func(ctx context.Context, session string) (any, error) {
		return h.client.GetArticles(ctx, session)
	})
}

// diagnostic runs one read call inside a scoped bookkeeping session.
func (h *AccountingHandler) diagnostic(c *gin.Context, key string, fetch func(ctx context.Context, session string) (any, error)) {
	ctx := c.Request.Context()

	session, err := h.client.OpenSession(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	defer h.client.CloseSession(ctx, session)

	records, err := fetch(ctx, session)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{key: records})
}
