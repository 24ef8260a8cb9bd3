package pdf

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimshield/internal/core/entity"
	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
	"rimshield/internal/domain/credits"
)

func TestPercentFollowsConfiguredRates(t *testing.T) {
	r := NewRenderer("", types.DefaultVATRates())

	assert.Equal(t, "21", r.percent(types.VATStandard))
	assert.Equal(t, "9", r.percent(types.VATReduced))
	assert.Equal(t, "0", r.percent(types.VATZero))
}

func TestPercentAfterRateChange(t *testing.T) {
	rates := types.VATRates{
		types.VATStandard: decimal.New(23, -2),
		types.VATReduced:  decimal.New(95, -3),
	}
	r := NewRenderer("", rates)

	assert.Equal(t, "23", r.percent(types.VATStandard))
	assert.Equal(t, "9.5", r.percent(types.VATReduced))
}

func TestRenderCreditNote(t *testing.T) {
	r := NewRenderer("Test B.V.", types.DefaultVATRates())

	note := &credits.CreditNote{
		BaseDocument: entity.NewBaseDocument(),
		CreditNumber: "C-2026-00042",
		OrderID:      id.New(),
		OrderNumber:  "ORD-2001",
		CustomerName: "A. de Vries",
		Items: []credits.Line{
			{
				ProductID:   id.New(),
				Name:        "Velg 17 inch",
				Quantity:    2,
				UnitPrice:   types.MustMoney("120.00"),
				VATCategory: types.VATStandard,
			},
		},
	}
	totals := note.ComputeTotals(types.DefaultVATRates())

	pdf, err := r.RenderCreditNote(context.Background(), note, totals)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
