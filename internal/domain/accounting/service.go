package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/domain/credits"
	"rimshield/internal/domain/orders"
	"rimshield/internal/domain/returns"
	"rimshield/pkg/logger"
)

// SyncLogEntry is one row in the sync audit log, appended per attempt.
type SyncLogEntry struct {
	ID         id.ID     `db:"id" json:"id"`
	SourceType string    `db:"source_type" json:"source_type"` // "credit" or "order"
	SourceID   id.ID     `db:"source_id" json:"source_id"`
	Status     string    `db:"status" json:"status"` // success or error
	MutatieIDs []int64   `db:"-" json:"mutatie_ids,omitempty"`
	Message    string    `db:"message" json:"message,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SyncLogRepository appends audit rows for sync attempts.
type SyncLogRepository interface {
	Append(ctx context.Context, entry *SyncLogEntry) error
}

// SyncService pushes credit notes and paid orders to bookkeeping.
type SyncService struct {
	creditRepo credits.Repository
	orderRepo  orders.Repository
	returnRepo returns.Repository
	gateway    Gateway
	auditLog   SyncLogRepository
	cfg        Config
}

// NewSyncService creates the accounting sync adapter.
func NewSyncService(
	creditRepo credits.Repository,
	orderRepo orders.Repository,
	returnRepo returns.Repository,
	gateway Gateway,
	auditLog SyncLogRepository,
	cfg Config,
) *SyncService {
	return &SyncService{
		creditRepo: creditRepo,
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		gateway:    gateway,
		auditLog:   auditLog,
		cfg:        cfg,
	}
}

// SyncCreditResult reports the outcome of SyncCredit.
type SyncCreditResult struct {
	Already       bool  `json:"already,omitempty"`
	CreditMutatie int64 `json:"credit_mutatie_id,omitempty"`
}

// SyncCredit pushes one credit note to bookkeeping as a memorial posting.
//
// Idempotent: a note already marked success is never re-posted. On failure
// the error is recorded on the note and the call is safely retryable from
// scratch; no partial completion is assumed.
func (s *SyncService) SyncCredit(ctx context.Context, creditID id.ID) (*SyncCreditResult, error) {
	note, err := s.creditRepo.GetByID(ctx, creditID)
	if err != nil {
		return nil, err
	}

	if note.IsSynced() {
		logger.Info(ctx, "credit note already synced",
			"credit_number", note.CreditNumber, "mutatie_id", note.Sync.CreditMutatie)
		return &SyncCreditResult{Already: true, CreditMutatie: note.Sync.CreditMutatie}, nil
	}

	order, err := s.orderRepo.GetByID(ctx, note.OrderID)
	if err != nil {
		return nil, err
	}

	var rma *returns.ReturnRequest
	if note.RMAID != nil {
		rma, err = s.returnRepo.GetByID(ctx, *note.RMAID)
		if err != nil {
			return nil, err
		}
	}

	set, err := BuildCreditPostings(note, order, rma, s.cfg)
	if err != nil {
		// Unbalanced sets are invariant violations: fail loudly, submit nothing.
		return nil, err
	}

	mutatieID, err := s.submit(ctx, order, Mutation{
		Kind:          KindMemorial,
		Date:          time.Now().UTC(),
		InvoiceNumber: note.CreditNumber,
		RelationCode:  relationCode(order),
		Description:   fmt.Sprintf("Creditnota %s", note.CreditNumber),
		Lines:         set.Lines,
	})
	if err != nil {
		s.recordCreditOutcome(ctx, note.ID, &credits.SyncState{
			Status:       credits.SyncError,
			ErrorMessage: err.Error(),
		})
		return nil, wrapGatewayError(err)
	}

	now := time.Now().UTC()
	s.recordCreditOutcome(ctx, note.ID, &credits.SyncState{
		Status:        credits.SyncSuccess,
		CreditMutatie: mutatieID,
		SyncTimestamp: &now,
	})

	logger.Info(ctx, "credit note synced",
		"credit_number", note.CreditNumber, "mutatie_id", mutatieID)

	return &SyncCreditResult{CreditMutatie: mutatieID}, nil
}

// SyncOrderResult reports the outcome of SyncOrder.
type SyncOrderResult struct {
	Already        bool  `json:"already,omitempty"`
	VerkoopMutatie int64 `json:"verkoop_mutatie_id,omitempty"`
	CogsMutatie    int64 `json:"cogs_mutatie_id,omitempty"`
}

// SyncOrder pushes a paid order to bookkeeping: a sales invoice mutation
// plus a perpetual-inventory COGS memorial, in one session.
func (s *SyncService) SyncOrder(ctx context.Context, orderID id.ID) (*SyncOrderResult, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != orders.PaymentPaid {
		return nil, apperror.NewInvalidState("order", order.PaymentStatus, orders.PaymentPaid)
	}

	if order.IsSynced() {
		logger.Info(ctx, "order already synced",
			"order_number", order.OrderNumber, "verkoop_mutatie_id", order.Sync.VerkoopMutatie)
		return &SyncOrderResult{
			Already:        true,
			VerkoopMutatie: order.Sync.VerkoopMutatie,
			CogsMutatie:    order.Sync.CogsMutatie,
		}, nil
	}

	invoiceSet, err := BuildOrderInvoicePostings(order, s.cfg)
	if err != nil {
		return nil, err
	}
	cogsSet, err := BuildOrderCOGSPostings(order, s.cfg)
	if err != nil {
		return nil, err
	}

	result, err := s.submitOrder(ctx, order, invoiceSet, cogsSet)
	if err != nil {
		s.recordOrderOutcome(ctx, order.ID, &orders.SyncState{
			Status:       orders.SyncError,
			ErrorMessage: err.Error(),
		})
		return nil, wrapGatewayError(err)
	}

	now := time.Now().UTC()
	s.recordOrderOutcome(ctx, order.ID, &orders.SyncState{
		Status:         orders.SyncSuccess,
		VerkoopMutatie: result.VerkoopMutatie,
		CogsMutatie:    result.CogsMutatie,
		SyncTimestamp:  &now,
	})

	logger.Info(ctx, "order synced",
		"order_number", order.OrderNumber,
		"verkoop_mutatie_id", result.VerkoopMutatie,
		"cogs_mutatie_id", result.CogsMutatie)

	return result, nil
}

// submit runs one mutation through a scoped session: open, best-effort
// relation upsert, submit, close. The session is closed on every path.
func (s *SyncService) submit(ctx context.Context, order *orders.Order, mut Mutation) (int64, error) {
	session, err := s.gateway.OpenSession(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := s.gateway.CloseSession(ctx, session); closeErr != nil {
			logger.Warn(ctx, "close bookkeeping session failed", "error", closeErr)
		}
	}()

	s.ensureRelation(ctx, session, order)

	return s.gateway.AddMutation(ctx, session, mut)
}

// submitOrder submits the invoice and COGS mutations within one session.
func (s *SyncService) submitOrder(ctx context.Context, order *orders.Order, invoiceSet, cogsSet *PostingSet) (*SyncOrderResult, error) {
	session, err := s.gateway.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := s.gateway.CloseSession(ctx, session); closeErr != nil {
			logger.Warn(ctx, "close bookkeeping session failed", "error", closeErr)
		}
	}()

	s.ensureRelation(ctx, session, order)

	now := time.Now().UTC()
	verkoopID, err := s.gateway.AddMutation(ctx, session, Mutation{
		Kind:          KindInvoiceSent,
		Date:          now,
		InvoiceNumber: order.OrderNumber,
		RelationCode:  relationCode(order),
		Description:   fmt.Sprintf("Factuur %s", order.OrderNumber),
		Lines:         invoiceSet.Lines,
	})
	if err != nil {
		return nil, err
	}

	result := &SyncOrderResult{VerkoopMutatie: verkoopID}

	if cogsSet != nil {
		cogsID, err := s.gateway.AddMutation(ctx, session, Mutation{
			Kind:          KindMemorial,
			Date:          now,
			InvoiceNumber: order.OrderNumber,
			RelationCode:  relationCode(order),
			Description:   fmt.Sprintf("COGS order %s", order.OrderNumber),
			Lines:         cogsSet.Lines,
		})
		if err != nil {
			return nil, err
		}
		result.CogsMutatie = cogsID
	}

	return result, nil
}

// ensureRelation upserts the customer relation, best-effort.
func (s *SyncService) ensureRelation(ctx context.Context, session string, order *orders.Order) {
	_, err := s.gateway.AddRelation(ctx, session, Relation{
		Code:    relationCode(order),
		Company: order.CustomerName,
		Contact: order.CustomerName,
		Email:   order.Email,
	})
	if err != nil {
		logger.Warn(ctx, "relation upsert failed",
			"relation_code", relationCode(order), "error", err)
	}
}

func (s *SyncService) recordCreditOutcome(ctx context.Context, creditID id.ID, sync *credits.SyncState) {
	if err := s.creditRepo.UpdateSync(ctx, creditID, sync); err != nil {
		logger.Error(ctx, "record credit sync outcome failed", "credit_id", creditID, "error", err)
	}
	s.appendAudit(ctx, "credit", creditID, sync.Status, sync.ErrorMessage, sync.CreditMutatie)
}

func (s *SyncService) recordOrderOutcome(ctx context.Context, orderID id.ID, sync *orders.SyncState) {
	if err := s.orderRepo.UpdateSync(ctx, orderID, sync); err != nil {
		logger.Error(ctx, "record order sync outcome failed", "order_id", orderID, "error", err)
	}
	s.appendAudit(ctx, "order", orderID, sync.Status, sync.ErrorMessage, sync.VerkoopMutatie, sync.CogsMutatie)
}

func (s *SyncService) appendAudit(ctx context.Context, sourceType string, sourceID id.ID, status, message string, mutatieIDs ...int64) {
	ids := make([]int64, 0, len(mutatieIDs))
	for _, m := range mutatieIDs {
		if m != 0 {
			ids = append(ids, m)
		}
	}
	entry := &SyncLogEntry{
		ID:         id.New(),
		SourceType: sourceType,
		SourceID:   sourceID,
		Status:     status,
		MutatieIDs: ids,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.auditLog.Append(ctx, entry); err != nil {
		logger.Error(ctx, "append sync audit log failed", "source_id", sourceID, "error", err)
	}
}

// wrapGatewayError converts a gateway failure into a client-visible error so
// the bookkeeping error code and message reach the caller.
func wrapGatewayError(err error) error {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return err
	}
	if gwErr.Kind == ErrKindAuth {
		return apperror.NewAuthentication(gwErr.Message).WithCause(err)
	}
	appErr := apperror.NewExternalService("eboekhouden", gwErr.Message).WithCause(err)
	if gwErr.Code != "" {
		appErr = appErr.WithDetail("eboekhouden_code", gwErr.Code)
	}
	return appErr
}

// relationCode derives a stable bookkeeping relation code for the customer.
func relationCode(order *orders.Order) string {
	if order.CustomerID != "" {
		return "WEB-" + order.CustomerID
	}
	return "WEB-" + order.OrderNumber
}
