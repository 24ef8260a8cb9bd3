// Package pdf renders credit note documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"rimshield/internal/core/types"
	"rimshield/internal/domain/credits"
)

// Renderer produces credit note PDFs with fpdf.
type Renderer struct {
	// CompanyName printed in the document header.
	CompanyName string

	rates types.VATRates
}

// NewRenderer creates a credit note renderer. The printed VAT percentages
// come from the same rates the posting builder uses.
func NewRenderer(companyName string, rates types.VATRates) *Renderer {
	if companyName == "" {
		companyName = "RimShield B.V."
	}
	return &Renderer{CompanyName: companyName, rates: rates}
}

// RenderCreditNote renders the credit note as an A4 PDF.
// The totals printed are exactly the figures used in the accounting posting.
func (r *Renderer) RenderCreditNote(ctx context.Context, note *credits.CreditNote, totals credits.Totals) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Creditnota %s", note.CreditNumber), true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, r.CompanyName)
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 13)
	doc.Cell(0, 8, fmt.Sprintf("Creditnota %s", note.CreditNumber))
	doc.Ln(8)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, fmt.Sprintf("Order: %s", note.OrderNumber))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Klant: %s", note.CustomerName))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Datum: %s", note.CreatedAt.Format("02-01-2006")))
	doc.Ln(10)

	// Line table
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(90, 7, "Omschrijving", "1", 0, "L", false, 0, "")
	doc.CellFormat(20, 7, "Aantal", "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Stukprijs", "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Bedrag", "1", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for _, line := range note.Items {
		doc.CellFormat(90, 7, line.Name, "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 7, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, euro(line.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, euro(line.Net()), "1", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	// Totals, VAT broken down per bracket
	doc.CellFormat(140, 6, "Subtotaal excl. BTW", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 6, euro(totals.Net), "", 1, "R", false, 0, "")
	for _, cat := range []types.VATCategory{types.VATStandard, types.VATReduced} {
		vat, ok := totals.VATByCategory[cat]
		if !ok || vat.IsZero() {
			continue
		}
		doc.CellFormat(140, 6, fmt.Sprintf("BTW %s%%", r.percent(cat)), "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, euro(vat), "", 1, "R", false, 0, "")
	}
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(140, 7, "Totaal te crediteren", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, euro(totals.Gross), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func euro(d decimal.Decimal) string {
	return "EUR " + d.StringFixed(2)
}

// percent formats the configured rate of a bracket, e.g. 0.21 -> "21".
func (r *Renderer) percent(cat types.VATCategory) string {
	return r.rates.Rate(cat).Mul(decimal.NewFromInt(100)).String()
}
