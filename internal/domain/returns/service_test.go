package returns

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
	"rimshield/internal/domain/credits"
	"rimshield/internal/domain/orders"
	"rimshield/pkg/numerator"
)

// --- Mocks ---

type mockReturnRepo struct {
	byID map[id.ID]*ReturnRequest
}

func newMockReturnRepo() *mockReturnRepo {
	return &mockReturnRepo{byID: make(map[id.ID]*ReturnRequest)}
}

func (m *mockReturnRepo) Create(_ context.Context, rma *ReturnRequest) error {
	m.byID[rma.ID] = rma
	return nil
}

func (m *mockReturnRepo) GetByID(_ context.Context, rmaID id.ID) (*ReturnRequest, error) {
	rma, ok := m.byID[rmaID]
	if !ok {
		return nil, apperror.NewNotFound("return request", rmaID.String())
	}
	clone := *rma
	clone.Items = append([]Item(nil), rma.Items...)
	return &clone, nil
}

func (m *mockReturnRepo) List(_ context.Context) ([]*ReturnRequest, error) {
	out := make([]*ReturnRequest, 0, len(m.byID))
	for _, rma := range m.byID {
		out = append(out, rma)
	}
	return out, nil
}

func (m *mockReturnRepo) UpdateConditional(_ context.Context, rma *ReturnRequest, expected Status) error {
	stored, ok := m.byID[rma.ID]
	if !ok || stored.Status != expected {
		return apperror.NewConcurrentModification("return request", rma.ID.String())
	}
	clone := *rma
	clone.Items = append([]Item(nil), rma.Items...)
	m.byID[rma.ID] = &clone
	return nil
}

type mockOrderRepo struct {
	orders map[string]*orders.Order
}

func (m *mockOrderRepo) GetByID(_ context.Context, orderID id.ID) (*orders.Order, error) {
	for _, o := range m.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, apperror.NewNotFound("order", orderID.String())
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, orderNumber string) (*orders.Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok {
		return nil, apperror.NewNotFound("order", orderNumber)
	}
	return o, nil
}

func (m *mockOrderRepo) UpdateSync(_ context.Context, _ id.ID, _ *orders.SyncState) error {
	return nil
}

type seqNumerator struct {
	n int
}

func (s *seqNumerator) GetNextNumber(_ context.Context, cfg numerator.Config, _ time.Time) (string, error) {
	s.n++
	return fmt.Sprintf("%s-%04d", cfg.Prefix, s.n), nil
}

type mockCreditCreator struct {
	lastInput credits.CreateInput
	result    *credits.CreateResult
	err       error
}

func (m *mockCreditCreator) CreateCredit(_ context.Context, in credits.CreateInput) (*credits.CreateResult, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Fixtures ---

func testOrder(productID id.ID) *orders.Order {
	return &orders.Order{
		ID:            id.New(),
		OrderNumber:   "ORD-2026-1001",
		CustomerID:    "cust-1",
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

func newTestService(order *orders.Order) (*Service, *mockReturnRepo, *mockCreditCreator) {
	repo := newMockReturnRepo()
	orderRepo := &mockOrderRepo{orders: map[string]*orders.Order{order.OrderNumber: order}}
	creator := &mockCreditCreator{}
	svc := NewService(repo, orderRepo, &seqNumerator{}, creator, passthroughTx{})
	return svc, repo, creator
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Tests ---

func TestCreate(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, repo, _ := newTestService(order)
	ctx := context.Background()

	rma, err := svc.Create(ctx, CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "RMA-0001", rma.RMANumber)
	assert.Equal(t, StatusOpen, rma.Status)
	assert.Equal(t, order.ID, rma.OrderID)
	assert.Equal(t, order.Email, rma.Email)
	assert.Len(t, repo.byID, 1)
}

func TestCreate_CustomerOverrides(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, _, _ := newTestService(order)
	ctx := context.Background()

	// Explicit values replace the order snapshot.
	rma, err := svc.Create(ctx, CreateInput{
		OrderNumber:  order.OrderNumber,
		CustomerName: "P. Jansen",
		Email:        "p.jansen@example.com",
		Items:        []RequestedLine{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "P. Jansen", rma.CustomerName)
	assert.Equal(t, "p.jansen@example.com", rma.Email)

	// Omitted values fall back to the order.
	rma, err = svc.Create(ctx, CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, order.CustomerName, rma.CustomerName)
	assert.Equal(t, order.Email, rma.Email)
}

func TestCreate_UnknownOrder(t *testing.T) {
	order := testOrder(id.New())
	svc, _, _ := newTestService(order)

	_, err := svc.Create(context.Background(), CreateInput{
		OrderNumber: "ORD-0000-0000",
		Items:       []RequestedLine{{ProductID: id.New(), Quantity: 1}},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_ProductNotOnOrder(t *testing.T) {
	order := testOrder(id.New())
	svc, _, _ := newTestService(order)

	_, err := svc.Create(context.Background(), CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: id.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not part of this order")
}

func TestApprove_WrongState(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, _, _ := newTestService(order)
	ctx := context.Background()

	rma, err := svc.Create(ctx, CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, rma.ID))

	// Second approve must fail: the RMA is no longer open.
	err = svc.Approve(ctx, rma.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestReceive_RequiresApproved(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, _, _ := newTestService(order)
	ctx := context.Background()

	rma, err := svc.Create(ctx, CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	err = svc.Receive(ctx, rma.ID, []ReceivedItem{{ProductID: productID, QtyReceived: 2}})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestFullLifecycle(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, _, creator := newTestService(order)
	ctx := context.Background()

	rma, err := svc.Create(ctx, CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, rma.ID))
	require.NoError(t, svc.Receive(ctx, rma.ID, []ReceivedItem{
		{ProductID: productID, QtyReceived: 2},
	}))
	require.NoError(t, svc.Inspect(ctx, rma.ID, []InspectedItem{
		{ProductID: productID, QtyCredit: 2, QtyRestock: 1, Condition: "opened box"},
	}))

	creditID := id.New()
	creator.result = &credits.CreateResult{
		ID:           creditID,
		CreditNumber: "C-2026-00001",
		PDFURL:       "http://blobs/credit-notes/C-2026-00001.pdf",
	}

	result, err := svc.Credit(ctx, CreditInput{
		OrderID: order.ID,
		RMAID:   &rma.ID,
		Items:   []credits.RequestedItem{{ProductID: productID, Quantity: 2}},
		Restock: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "C-2026-00001", result.CreditNumber)

	// The inspection's restock quantity travels with the credit request.
	require.Len(t, creator.lastInput.Items, 1)
	require.NotNil(t, creator.lastInput.Items[0].RestockQuantity)
	assert.Equal(t, 1, *creator.lastInput.Items[0].RestockQuantity)
	assert.True(t, creator.lastInput.Restock)

	stored, err := svc.GetByID(ctx, rma.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCredited, stored.Status)
	require.NotNil(t, stored.CreditID)
	assert.Equal(t, creditID, *stored.CreditID)
	assert.Equal(t, "C-2026-00001", stored.CreditNumber)
}

func TestCredit_RequiresInspected(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, _, creator := newTestService(order)
	ctx := context.Background()

	rma, err := svc.Create(ctx, CreateInput{
		OrderNumber: order.OrderNumber,
		Items:       []RequestedLine{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)

	creator.result = &credits.CreateResult{ID: id.New(), CreditNumber: "C-2026-00001"}

	_, err = svc.Credit(ctx, CreditInput{
		OrderID: order.ID,
		RMAID:   &rma.ID,
		Items:   []credits.RequestedItem{{ProductID: productID, Quantity: 1}},
	})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestCredit_WithoutRMA(t *testing.T) {
	productID := id.New()
	order := testOrder(productID)
	svc, _, creator := newTestService(order)

	creator.result = &credits.CreateResult{ID: id.New(), CreditNumber: "C-2026-00002"}

	result, err := svc.Credit(context.Background(), CreditInput{
		OrderID: order.ID,
		Items:   []credits.RequestedItem{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "C-2026-00002", result.CreditNumber)
	assert.Nil(t, creator.lastInput.RMAID)
}
