package credits

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
	"rimshield/internal/domain/orders"
	"rimshield/internal/domain/product"
	"rimshield/pkg/numerator"
)

// --- Mocks ---

type mockRepo struct {
	created []*CreditNote
}

func (m *mockRepo) Create(_ context.Context, note *CreditNote) error {
	m.created = append(m.created, note)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, creditID id.ID) (*CreditNote, error) {
	for _, n := range m.created {
		if n.ID == creditID {
			return n, nil
		}
	}
	return nil, apperror.NewNotFound("credit note", creditID.String())
}

func (m *mockRepo) List(_ context.Context) ([]*CreditNote, error) {
	return m.created, nil
}

func (m *mockRepo) UpdateSync(_ context.Context, _ id.ID, _ *SyncState) error {
	return nil
}

type mockOrderRepo struct {
	order *orders.Order
}

func (m *mockOrderRepo) GetByID(_ context.Context, orderID id.ID) (*orders.Order, error) {
	if m.order != nil && m.order.ID == orderID {
		return m.order, nil
	}
	return nil, apperror.NewNotFound("order", orderID.String())
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, orderNumber string) (*orders.Order, error) {
	if m.order != nil && m.order.OrderNumber == orderNumber {
		return m.order, nil
	}
	return nil, apperror.NewNotFound("order", orderNumber)
}

func (m *mockOrderRepo) UpdateSync(_ context.Context, _ id.ID, _ *orders.SyncState) error {
	return nil
}

type mockProductRepo struct {
	stock   map[id.ID]int
	failAll bool
}

func (m *mockProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	return &product.Product{ID: productID, Stock: m.stock[productID]}, nil
}

func (m *mockProductRepo) IncrementStock(_ context.Context, productID id.ID, qty int) error {
	if m.failAll {
		return apperror.NewDatabase("increment stock", errors.New("connection reset"))
	}
	m.stock[productID] += qty
	return nil
}

type seqNumerator struct {
	n int
}

func (s *seqNumerator) GetNextNumber(_ context.Context, cfg numerator.Config, period time.Time) (string, error) {
	s.n++
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), s.n), nil
}

type mockRenderer struct {
	lastTotals Totals
}

func (m *mockRenderer) RenderCreditNote(_ context.Context, _ *CreditNote, totals Totals) ([]byte, error) {
	m.lastTotals = totals
	return []byte("%PDF-1.4 test"), nil
}

type mockBlobStore struct {
	saved map[string][]byte
}

func (m *mockBlobStore) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = data
	return "http://blobs/" + name, nil
}

type mockMailer struct {
	sent []string
	err  error
}

func (m *mockMailer) SendCreditNote(_ context.Context, to, _, _ string, _ []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

// --- Fixtures ---

type fixture struct {
	svc      *Service
	repo     *mockRepo
	products *mockProductRepo
	renderer *mockRenderer
	blobs    *mockBlobStore
	mailer   *mockMailer
	order    *orders.Order
}

func newFixture(order *orders.Order) *fixture {
	f := &fixture{
		repo:     &mockRepo{},
		products: &mockProductRepo{stock: make(map[id.ID]int)},
		renderer: &mockRenderer{},
		blobs:    &mockBlobStore{},
		mailer:   &mockMailer{},
		order:    order,
	}
	f.svc = NewService(
		f.repo,
		&mockOrderRepo{order: order},
		f.products,
		&seqNumerator{},
		f.renderer,
		f.blobs,
		f.mailer,
		types.DefaultVATRates(),
		passthroughTx{},
	)
	return f
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func paidOrder(productID id.ID) *orders.Order {
	return &orders.Order{
		ID:            id.New(),
		OrderNumber:   "ORD-2026-1001",
		CustomerName:  "Jan de Vries",
		Email:         "jan@example.nl",
		PaymentStatus: orders.PaymentPaid,
		Items: []orders.Item{
			{
				ProductID:   productID,
				Name:        "RimShield Set Black 17\"",
				Quantity:    3,
				UnitPrice:   decimal.NewFromFloat(89.95),
				CostPrice:   decimal.NewFromFloat(34.50),
				VATCategory: types.VATStandard,
			},
		},
	}
}

// --- Tests ---

func TestCreateCredit_HistoricalPricing(t *testing.T) {
	productID := id.New()
	f := newFixture(paidOrder(productID))

	result, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items:   []RequestedItem{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "C-2026-00001", result.CreditNumber)
	assert.Equal(t, "http://blobs/credit-notes/C-2026-00001.pdf", result.PDFURL)
	assert.Empty(t, result.Warnings)

	require.Len(t, f.repo.created, 1)
	note := f.repo.created[0]
	require.Len(t, note.Items, 1)

	// Price comes from the order, not from anything live.
	line := note.Items[0]
	assert.Equal(t, "RimShield Set Black 17\"", line.Name)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromFloat(89.95)))
	assert.Equal(t, types.VATStandard, line.VATCategory)

	// 2 x 89.95 = 179.90 net, 37.78 VAT (21%, rounded half away from zero)
	assert.True(t, f.renderer.lastTotals.Net.Equal(decimal.NewFromFloat(179.90)),
		"net = %s", f.renderer.lastTotals.Net)
	assert.True(t, f.renderer.lastTotals.VAT.Equal(decimal.NewFromFloat(37.78)),
		"vat = %s", f.renderer.lastTotals.VAT)
	assert.True(t, f.renderer.lastTotals.Gross.Equal(decimal.NewFromFloat(217.68)),
		"gross = %s", f.renderer.lastTotals.Gross)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "jan@example.nl", f.mailer.sent[0])
}

func TestCreateCredit_ProductNotOnOrder(t *testing.T) {
	f := newFixture(paidOrder(id.New()))

	_, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items:   []RequestedItem{{ProductID: id.New(), Quantity: 1}},
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.repo.created, "nothing may be persisted on failure")
}

func TestCreateCredit_FallbackPricing(t *testing.T) {
	productID := id.New()
	f := newFixture(paidOrder(productID))

	otherID := id.New()
	price := types.Money(decimal.NewFromFloat(12.50))
	vat := types.VATReduced

	result, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items: []RequestedItem{{
			ProductID:         otherID,
			Quantity:          1,
			FallbackName:      "Shipping refund",
			FallbackUnitPrice: &price,
			FallbackVAT:       &vat,
		}},
	})
	require.NoError(t, err)
	require.Len(t, f.repo.created, 1)
	assert.Equal(t, "Shipping refund", f.repo.created[0].Items[0].Name)
	assert.NotEmpty(t, result.CreditNumber)
}

func TestCreateCredit_RestockUsesRestockQuantity(t *testing.T) {
	productID := id.New()
	f := newFixture(paidOrder(productID))

	one := 1
	_, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items: []RequestedItem{{
			ProductID:       productID,
			Quantity:        2,
			RestockQuantity: &one,
		}},
		Restock: true,
	})
	require.NoError(t, err)

	// Two credited, one back on the shelf.
	assert.Equal(t, 1, f.products.stock[productID])
}

func TestCreateCredit_RestockFailureIsWarning(t *testing.T) {
	productID := id.New()
	f := newFixture(paidOrder(productID))
	f.products.failAll = true

	result, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items:   []RequestedItem{{ProductID: productID, Quantity: 2}},
		Restock: true,
	})
	require.NoError(t, err, "restock failure must not fail the credit")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "restock")
	assert.Len(t, f.repo.created, 1)
}

func TestCreateCredit_EmailFailureIsWarning(t *testing.T) {
	productID := id.New()
	f := newFixture(paidOrder(productID))
	f.mailer.err = errors.New("smtp: connection refused")

	result, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items:   []RequestedItem{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err, "email failure must not fail the credit")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "email")
}

func TestCreateCredit_NoValidItems(t *testing.T) {
	productID := id.New()
	f := newFixture(paidOrder(productID))

	_, err := f.svc.CreateCredit(context.Background(), CreateInput{
		OrderID: f.order.ID,
		Items:   []RequestedItem{{ProductID: productID, Quantity: 0}},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestComputeTotals_MixedBrackets(t *testing.T) {
	note := &CreditNote{
		Items: []Line{
			{ProductID: id.New(), Quantity: 1, UnitPrice: decimal.NewFromFloat(100.00), VATCategory: types.VATStandard},
			{ProductID: id.New(), Quantity: 2, UnitPrice: decimal.NewFromFloat(10.00), VATCategory: types.VATReduced},
			{ProductID: id.New(), Quantity: 1, UnitPrice: decimal.NewFromFloat(5.00), VATCategory: types.VATZero},
		},
	}

	totals := note.ComputeTotals(types.DefaultVATRates())

	assert.True(t, totals.NetByCategory[types.VATStandard].Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, totals.VATByCategory[types.VATStandard].Equal(decimal.NewFromFloat(21.00)))
	assert.True(t, totals.NetByCategory[types.VATReduced].Equal(decimal.NewFromFloat(20.00)))
	assert.True(t, totals.VATByCategory[types.VATReduced].Equal(decimal.NewFromFloat(1.80)))
	assert.True(t, totals.VATByCategory[types.VATZero].IsZero())

	assert.True(t, totals.Net.Equal(decimal.NewFromFloat(125.00)))
	assert.True(t, totals.VAT.Equal(decimal.NewFromFloat(22.80)))
	assert.True(t, totals.Gross.Equal(decimal.NewFromFloat(147.80)))
}
