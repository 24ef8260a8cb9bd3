package returns

import (
	"context"
	"fmt"
	"time"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/core/tx"
	"rimshield/internal/domain/credits"
	"rimshield/internal/domain/orders"
	"rimshield/pkg/logger"
	"rimshield/pkg/numerator"
)

// Numerator allocates sequential RMA numbers.
type Numerator interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error)
}

// CreditCreator issues credit notes. Implemented by credits.Service.
type CreditCreator interface {
	CreateCredit(ctx context.Context, in credits.CreateInput) (*credits.CreateResult, error)
}

// NumberConfig for RMA numbering: RMA-NNNN, never reset.
func NumberConfig() numerator.Config {
	return numerator.Config{
		Prefix:      "RMA",
		IncludeYear: false,
		PadWidth:    4,
		ResetPeriod: "never",
	}
}

// Service provides the RMA lifecycle operations.
type Service struct {
	repo    Repository
	orders  orders.Repository
	num     Numerator
	credits CreditCreator
	tm      tx.Manager
}

// NewService creates a returns service.
func NewService(repo Repository, orderRepo orders.Repository, num Numerator, creditCreator CreditCreator, tm tx.Manager) *Service {
	return &Service{
		repo:    repo,
		orders:  orderRepo,
		num:     num,
		credits: creditCreator,
		tm:      tm,
	}
}

// CreateInput is a new return request from the customer-facing form
// or an admin action. CustomerName and Email override the order's
// snapshot when given, for returns filed on someone else's behalf.
type CreateInput struct {
	OrderNumber  string          `json:"orderNumber"`
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	Items        []RequestedLine `json:"items"`
}

// RequestedLine is one line of a new RMA.
type RequestedLine struct {
	ProductID id.ID `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Create registers a new RMA for an existing order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*ReturnRequest, error) {
	if in.OrderNumber == "" {
		return nil, apperror.NewValidation("orderNumber is required")
	}

	order, err := s.orders.GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return nil, err
	}

	customerName := order.CustomerName
	if in.CustomerName != "" {
		customerName = in.CustomerName
	}
	email := order.Email
	if in.Email != "" {
		email = in.Email
	}

	rma := NewReturnRequest(order.ID, order.OrderNumber, order.CustomerID, customerName, email)
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, apperror.NewValidation("requested quantity must be positive").
				WithDetail("product_id", item.ProductID)
		}
		if order.FindItem(item.ProductID) == nil {
			return nil, apperror.NewValidation("product is not part of this order").
				WithDetail("product_id", item.ProductID)
		}
		rma.Items = append(rma.Items, Item{ProductID: item.ProductID, QtyRequested: item.Quantity})
	}

	if err := rma.Validate(ctx); err != nil {
		return nil, err
	}

	// Number allocation and insert commit together.
	err = s.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.num.GetNextNumber(ctx, NumberConfig(), time.Now())
		if err != nil {
			return fmt.Errorf("allocate rma number: %w", err)
		}
		rma.RMANumber = number

		if err := s.repo.Create(ctx, rma); err != nil {
			return fmt.Errorf("persist rma: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rma created", "id", rma.ID, "rma_number", rma.RMANumber, "order_number", rma.OrderNumber)
	return rma, nil
}

// GetByID retrieves an RMA.
func (s *Service) GetByID(ctx context.Context, rmaID id.ID) (*ReturnRequest, error) {
	return s.repo.GetByID(ctx, rmaID)
}

// List retrieves all RMAs, newest first.
func (s *Service) List(ctx context.Context) ([]*ReturnRequest, error) {
	return s.repo.List(ctx)
}

// Approve advances an open RMA to approved. No other mutation.
func (s *Service) Approve(ctx context.Context, rmaID id.ID) error {
	rma, err := s.loadForTransition(ctx, rmaID, StatusOpen)
	if err != nil {
		return err
	}

	rma.Status = StatusApproved
	rma.Touch()

	if err := s.repo.UpdateConditional(ctx, rma, StatusOpen); err != nil {
		return err
	}

	logger.Info(ctx, "rma approved", "rma_number", rma.RMANumber)
	return nil
}

// Receive records goods-in quantities and advances approved -> received.
func (s *Service) Receive(ctx context.Context, rmaID id.ID, items []ReceivedItem) error {
	rma, err := s.loadForTransition(ctx, rmaID, StatusApproved)
	if err != nil {
		return err
	}

	if err := rma.ApplyReceived(items); err != nil {
		return err
	}
	rma.Status = StatusReceived

	if err := s.repo.UpdateConditional(ctx, rma, StatusApproved); err != nil {
		return err
	}

	logger.Info(ctx, "rma received", "rma_number", rma.RMANumber)
	return nil
}

// Inspect records inspection outcomes and advances received -> inspected.
func (s *Service) Inspect(ctx context.Context, rmaID id.ID, items []InspectedItem) error {
	rma, err := s.loadForTransition(ctx, rmaID, StatusReceived)
	if err != nil {
		return err
	}

	if err := rma.ApplyInspection(items); err != nil {
		return err
	}
	rma.Status = StatusInspected

	if err := s.repo.UpdateConditional(ctx, rma, StatusReceived); err != nil {
		return err
	}

	logger.Info(ctx, "rma inspected", "rma_number", rma.RMANumber)
	return nil
}

// CreditInput is the credit-and-close request for an RMA.
type CreditInput struct {
	OrderID id.ID
	RMAID   *id.ID
	Items   []credits.RequestedItem
	Restock bool
}

// Credit issues a credit note and, when an RMA is referenced, advances it
// inspected -> credited with the credit reference stored on the RMA.
//
// The credit note itself is authoritative once created; a failure to close
// the RMA afterwards is surfaced to the caller but does not void the credit.
func (s *Service) Credit(ctx context.Context, in CreditInput) (*credits.CreateResult, error) {
	var rma *ReturnRequest
	if in.RMAID != nil {
		var err error
		rma, err = s.loadForTransition(ctx, *in.RMAID, StatusInspected)
		if err != nil {
			return nil, err
		}
	}

	items := in.Items
	if rma != nil {
		items = withInspectedRestock(items, rma)
	}

	result, err := s.credits.CreateCredit(ctx, credits.CreateInput{
		OrderID: in.OrderID,
		RMAID:   in.RMAID,
		Items:   items,
		Restock: in.Restock,
	})
	if err != nil {
		return nil, err
	}

	if rma != nil {
		creditID := result.ID
		rma.Status = StatusCredited
		rma.CreditID = &creditID
		rma.CreditNumber = result.CreditNumber
		rma.Touch()

		if err := s.repo.UpdateConditional(ctx, rma, StatusInspected); err != nil {
			return nil, fmt.Errorf("credit %s created but rma not closed: %w", result.CreditNumber, err)
		}

		logger.Info(ctx, "rma credited",
			"rma_number", rma.RMANumber, "credit_number", result.CreditNumber)
	}

	return result, nil
}

// withInspectedRestock caps restock quantities with the RMA's inspection
// outcome: a line inspected as "credit 2, restock 1" puts one unit back
// even if both are credited.
func withInspectedRestock(items []credits.RequestedItem, rma *ReturnRequest) []credits.RequestedItem {
	out := make([]credits.RequestedItem, len(items))
	copy(out, items)
	for i := range out {
		for _, ri := range rma.Items {
			if ri.ProductID == out[i].ProductID && ri.QtyRestock != nil {
				qty := *ri.QtyRestock
				out[i].RestockQuantity = &qty
				break
			}
		}
	}
	return out
}

// loadForTransition fetches the RMA and checks the transition precondition.
func (s *Service) loadForTransition(ctx context.Context, rmaID id.ID, required Status) (*ReturnRequest, error) {
	if id.IsNil(rmaID) {
		return nil, apperror.NewValidation("rmaId is required")
	}

	rma, err := s.repo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, err
	}

	if rma.Status != required {
		return nil, apperror.NewInvalidState("return request", rma.Status.String(), required.String())
	}

	return rma, nil
}
