package credits

import (
	"context"
	"fmt"
	"time"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/entity"
	"rimshield/internal/core/id"
	"rimshield/internal/core/tx"
	"rimshield/internal/core/types"
	"rimshield/internal/domain/orders"
	"rimshield/internal/domain/product"
	"rimshield/pkg/logger"
	"rimshield/pkg/numerator"
)

// Numerator allocates sequential credit numbers.
type Numerator interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error)
}

// Renderer produces the credit note PDF.
type Renderer interface {
	RenderCreditNote(ctx context.Context, note *CreditNote, totals Totals) ([]byte, error)
}

// BlobStore persists rendered documents and returns a retrieval URL.
type BlobStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Mailer sends the credit note to the customer.
type Mailer interface {
	SendCreditNote(ctx context.Context, to, customerName, creditNumber string, pdf []byte) error
}

// NumberPrefix for credit note numbering (C-YYYY-NNNNN).
const NumberPrefix = "C"

// Service generates credit notes.
type Service struct {
	repo     Repository
	orders   orders.Repository
	products product.Repository
	num      Numerator
	renderer Renderer
	blobs    BlobStore
	mailer   Mailer
	rates    types.VATRates
	tm       tx.Manager
}

// NewService creates a credit note service.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	productRepo product.Repository,
	num Numerator,
	renderer Renderer,
	blobs BlobStore,
	mailer Mailer,
	rates types.VATRates,
	tm tx.Manager,
) *Service {
	return &Service{
		repo:     repo,
		orders:   orderRepo,
		products: productRepo,
		num:      num,
		renderer: renderer,
		blobs:    blobs,
		mailer:   mailer,
		rates:    rates,
		tm:       tm,
	}
}

// RequestedItem is one line of a credit request.
type RequestedItem struct {
	ProductID id.ID `json:"product_id"`
	Quantity  int   `json:"quantity"`

	// RestockQuantity caps how many units go back to stock when restocking.
	// Nil means the full credited quantity.
	RestockQuantity *int `json:"restock_quantity,omitempty"`

	// Fallback pricing for lines not present on the original order.
	// Only used when explicitly provided by the caller.
	FallbackName      string             `json:"fallback_name,omitempty"`
	FallbackUnitPrice *types.Money       `json:"fallback_unit_price,omitempty"`
	FallbackVAT       *types.VATCategory `json:"fallback_vat_category,omitempty"`
}

// CreateInput is the credit creation request.
type CreateInput struct {
	OrderID id.ID
	RMAID   *id.ID
	Items   []RequestedItem
	Restock bool
}

// CreateResult is returned on successful credit creation.
// Warnings record best-effort side effects (restock, email) that failed
// without failing the credit itself.
type CreateResult struct {
	ID           id.ID    `json:"id"`
	CreditNumber string   `json:"credit_number"`
	PDFURL       string   `json:"url"`
	Warnings     []string `json:"warnings,omitempty"`
}

// CreateCredit produces a persisted, numbered, PDF-backed credit note.
//
// Line prices come from the original order's item records; the credit number
// comes from an atomic counter; restock and customer email are best-effort
// and reported as warnings.
func (s *Service) CreateCredit(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if id.IsNil(in.OrderID) {
		return nil, apperror.NewValidation("order_id is required")
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	requested := filterItems(in.Items)
	if len(requested) == 0 {
		return nil, apperror.NewValidation("at least one item with positive quantity is required")
	}

	note := &CreditNote{
		BaseDocument: entity.NewBaseDocument(),
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		RMAID:        in.RMAID,
		CustomerName: order.CustomerName,
		Email:        order.Email,
	}

	for _, req := range requested {
		line, err := s.priceLine(order, req)
		if err != nil {
			return nil, err
		}
		note.Items = append(note.Items, line)
	}

	if err := note.Validate(ctx); err != nil {
		return nil, err
	}

	// Number allocation and insert commit together; a failed render or
	// upload rolls back and releases the number.
	var pdf []byte
	err = s.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.num.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), time.Now())
		if err != nil {
			return fmt.Errorf("allocate credit number: %w", err)
		}
		note.CreditNumber = number

		totals := note.ComputeTotals(s.rates)
		pdf, err = s.renderer.RenderCreditNote(ctx, note, totals)
		if err != nil {
			return fmt.Errorf("render credit note pdf: %w", err)
		}

		pdfURL, err := s.blobs.Save(ctx, fmt.Sprintf("credit-notes/%s.pdf", note.CreditNumber), "application/pdf", pdf)
		if err != nil {
			return fmt.Errorf("store credit note pdf: %w", err)
		}
		note.PDFURL = pdfURL

		if err := s.repo.Create(ctx, note); err != nil {
			return fmt.Errorf("persist credit note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{
		ID:           note.ID,
		CreditNumber: note.CreditNumber,
		PDFURL:       note.PDFURL,
	}

	if in.Restock {
		result.Warnings = append(result.Warnings, s.restock(ctx, note.CreditNumber, requested)...)
	}

	if s.mailer != nil && note.Email != "" {
		if err := s.mailer.SendCreditNote(ctx, note.Email, note.CustomerName, note.CreditNumber, pdf); err != nil {
			logger.Warn(ctx, "credit note email failed",
				"credit_number", note.CreditNumber, "email", note.Email, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("email to %s failed: %v", note.Email, err))
		}
	}

	logger.Info(ctx, "credit note created",
		"id", note.ID, "credit_number", note.CreditNumber, "order_number", note.OrderNumber)

	return result, nil
}

// GetByID retrieves a credit note.
func (s *Service) GetByID(ctx context.Context, creditID id.ID) (*CreditNote, error) {
	return s.repo.GetByID(ctx, creditID)
}

// List retrieves all credit notes, newest first.
func (s *Service) List(ctx context.Context) ([]*CreditNote, error) {
	return s.repo.List(ctx)
}

// priceLine resolves the historical price for a requested item.
func (s *Service) priceLine(order *orders.Order, req RequestedItem) (Line, error) {
	if orderLine := order.FindItem(req.ProductID); orderLine != nil {
		return Line{
			ProductID:   req.ProductID,
			Name:        orderLine.Name,
			Quantity:    req.Quantity,
			UnitPrice:   orderLine.UnitPrice,
			VATCategory: orderLine.VATCategory,
		}, nil
	}

	// Caller-supplied fallback only; nothing is ever looked up in the live catalog.
	if req.FallbackUnitPrice != nil && req.FallbackVAT != nil && req.FallbackName != "" {
		return Line{
			ProductID:   req.ProductID,
			Name:        req.FallbackName,
			Quantity:    req.Quantity,
			UnitPrice:   *req.FallbackUnitPrice,
			VATCategory: *req.FallbackVAT,
		}, nil
	}

	return Line{}, apperror.NewNotFound("order line", req.ProductID).
		WithDetail("order_number", order.OrderNumber)
}

// restock increments stock for the credited lines, best-effort. Lines with
// an explicit RestockQuantity restock that many units; zero skips the line.
func (s *Service) restock(ctx context.Context, creditNumber string, requested []RequestedItem) []string {
	var warnings []string
	for _, req := range requested {
		qty := req.Quantity
		if req.RestockQuantity != nil {
			qty = *req.RestockQuantity
		}
		if qty <= 0 {
			continue
		}
		if err := s.products.IncrementStock(ctx, req.ProductID, qty); err != nil {
			logger.Warn(ctx, "restock failed",
				"credit_number", creditNumber, "product_id", req.ProductID, "error", err)
			warnings = append(warnings, fmt.Sprintf("restock of product %s failed: %v", req.ProductID, err))
		}
	}
	return warnings
}

func filterItems(items []RequestedItem) []RequestedItem {
	out := make([]RequestedItem, 0, len(items))
	for _, it := range items {
		if !id.IsNil(it.ProductID) && it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out
}
