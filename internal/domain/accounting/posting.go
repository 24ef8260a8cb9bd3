package accounting

import (
	"github.com/shopspring/decimal"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/types"
)

// Side of a ledger line.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// Line is one ledger posting line. Amount is always positive; the side
// carries the sign.
type Line struct {
	AccountCode string
	Description string
	Amount      types.Money
	Side        Side
	VATCode     string
}

// PostingSet is the ephemeral set of ledger lines for one sync operation.
// It must balance (sum of debits equals sum of credits) before submission.
type PostingSet struct {
	Lines []Line
}

// AddDebit appends a debit line, skipping zero amounts.
func (p *PostingSet) AddDebit(account, description string, amount types.Money, vatCode string) {
	p.add(account, description, amount, Debit, vatCode)
}

// AddCredit appends a credit line, skipping zero amounts.
func (p *PostingSet) AddCredit(account, description string, amount types.Money, vatCode string) {
	p.add(account, description, amount, Credit, vatCode)
}

func (p *PostingSet) add(account, description string, amount types.Money, side Side, vatCode string) {
	if amount.IsZero() {
		return
	}
	p.Lines = append(p.Lines, Line{
		AccountCode: account,
		Description: description,
		Amount:      amount,
		Side:        side,
		VATCode:     vatCode,
	})
}

// DebitTotal sums all debit lines.
func (p *PostingSet) DebitTotal() types.Money {
	total := decimal.Zero
	for _, l := range p.Lines {
		if l.Side == Debit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// CreditTotal sums all credit lines.
func (p *PostingSet) CreditTotal() types.Money {
	total := decimal.Zero
	for _, l := range p.Lines {
		if l.Side == Credit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// Balanced reports whether debits equal credits exactly, to the cent.
func (p *PostingSet) Balanced() bool {
	return p.DebitTotal().Equal(p.CreditTotal())
}

// CheckBalanced returns an invariant-violation error for an unbalanced set.
// An unbalanced set is a programming error and must never reach bookkeeping.
func (p *PostingSet) CheckBalanced() error {
	if p.Balanced() {
		return nil
	}
	return apperror.NewUnbalancedPosting(p.DebitTotal().String(), p.CreditTotal().String())
}
