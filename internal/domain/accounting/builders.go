package accounting

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"rimshield/internal/core/types"
	"rimshield/internal/domain/credits"
	"rimshield/internal/domain/orders"
	"rimshield/internal/domain/returns"
)

// BuildCreditPostings builds the memorial posting set reversing a sale:
// revenue and VAT debited per bracket, debtor credited for the gross total,
// plus inventory/COGS reversal lines derived from the RMA inspection.
func BuildCreditPostings(note *credits.CreditNote, order *orders.Order, rma *returns.ReturnRequest, cfg Config) (*PostingSet, error) {
	set := &PostingSet{}
	totals := note.ComputeTotals(cfg.Rates)

	ref := fmt.Sprintf("Creditnota %s (order %s)", note.CreditNumber, note.OrderNumber)

	for _, cat := range sortedCategories(totals.NetByCategory) {
		net := totals.NetByCategory[cat]
		set.AddDebit(cfg.Accounts.Revenue(cat), ref, net, VATCode(cat))

		if vat := totals.VATByCategory[cat]; !vat.IsZero() {
			set.AddDebit(cfg.Accounts.VAT(cat), ref, vat, VATCode(cat))
		}
	}

	// One combined debtor line for the gross total across all brackets.
	set.AddCredit(cfg.Accounts.Debtors, ref, totals.Gross, "GEEN")

	if rma != nil {
		if err := addCOGSReversal(set, rma, order, cfg, ref); err != nil {
			return nil, err
		}
	}

	if err := set.CheckBalanced(); err != nil {
		return nil, err
	}
	return set, nil
}

// addCOGSReversal posts the perpetual-inventory reversal for inspected RMA
// lines: restocked units back into inventory, written-off surplus into the
// loss account, both against COGS at the order's historical cost.
func addCOGSReversal(set *PostingSet, rma *returns.ReturnRequest, order *orders.Order, cfg Config, ref string) error {
	for _, item := range rma.Items {
		if item.QtyCredit == nil {
			continue
		}
		orderLine := order.FindItem(item.ProductID)
		if orderLine == nil || orderLine.CostPrice.IsZero() {
			// No known unit cost: nothing to reverse for this line.
			continue
		}

		restock := 0
		if item.QtyRestock != nil {
			restock = *item.QtyRestock
		}
		writeOff := *item.QtyCredit - restock

		if restock > 0 {
			amount := types.RoundMoney(orderLine.CostPrice.Mul(decimal.NewFromInt(int64(restock))))
			set.AddDebit(cfg.Accounts.Inventory, ref+" voorraad retour", amount, "GEEN")
			set.AddCredit(cfg.Accounts.COGS, ref+" voorraad retour", amount, "GEEN")
		}
		if writeOff > 0 {
			amount := types.RoundMoney(orderLine.CostPrice.Mul(decimal.NewFromInt(int64(writeOff))))
			set.AddDebit(cfg.Accounts.WriteOff, ref+" afschrijving", amount, "GEEN")
			set.AddCredit(cfg.Accounts.COGS, ref+" afschrijving", amount, "GEEN")
		}
	}
	return nil
}

// BuildOrderInvoicePostings builds the sales invoice posting set for a paid
// order: debtor debited for the gross total, revenue and VAT credited per
// bracket.
func BuildOrderInvoicePostings(order *orders.Order, cfg Config) (*PostingSet, error) {
	set := &PostingSet{}
	ref := fmt.Sprintf("Factuur %s", order.OrderNumber)

	netByCat := make(map[types.VATCategory]types.Money)
	for _, item := range order.Items {
		net := types.RoundMoney(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		cur, ok := netByCat[item.VATCategory]
		if !ok {
			cur = decimal.Zero
		}
		netByCat[item.VATCategory] = cur.Add(net)
	}

	gross := decimal.Zero
	for _, cat := range sortedCategories(netByCat) {
		net := netByCat[cat]
		vat := types.RoundMoney(net.Mul(cfg.Rates.Rate(cat)))
		set.AddCredit(cfg.Accounts.Revenue(cat), ref, net, VATCode(cat))
		if !vat.IsZero() {
			set.AddCredit(cfg.Accounts.VAT(cat), ref, vat, VATCode(cat))
		}
		gross = gross.Add(net).Add(vat)
	}

	set.AddDebit(cfg.Accounts.Debtors, ref, gross, "GEEN")

	if err := set.CheckBalanced(); err != nil {
		return nil, err
	}
	return set, nil
}

// BuildOrderCOGSPostings builds the perpetual-inventory memorial for a paid
// order: COGS debited, inventory credited at historical cost.
// Returns nil when no line carries a cost price.
func BuildOrderCOGSPostings(order *orders.Order, cfg Config) (*PostingSet, error) {
	set := &PostingSet{}
	ref := fmt.Sprintf("COGS order %s", order.OrderNumber)

	total := decimal.Zero
	for _, item := range order.Items {
		if item.CostPrice.IsZero() {
			continue
		}
		total = total.Add(types.RoundMoney(item.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}
	if total.IsZero() {
		return nil, nil
	}

	set.AddDebit(cfg.Accounts.COGS, ref, total, "GEEN")
	set.AddCredit(cfg.Accounts.Inventory, ref, total, "GEEN")

	if err := set.CheckBalanced(); err != nil {
		return nil, err
	}
	return set, nil
}

// sortedCategories gives a stable line order for deterministic mutations.
func sortedCategories(m map[types.VATCategory]types.Money) []types.VATCategory {
	cats := make([]types.VATCategory, 0, len(m))
	for cat := range m {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
