package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/dto"
)

func postInterestRequest(invoice *domain.Invoice, typeCode string, amount domain.Amount, asOf time.Time) dto.PostEntryRequest {
	invoiceID := invoice.InvoiceID
	return dto.PostEntryRequest{
		AccountID:       invoice.AccountID,
		TypeCode:        typeCode,
		Amount:          amount,
		Timestamp:       asOf,
		SourceInvoiceID: &invoiceID,
		Description:     fmt.Sprintf("interest on invoice %s accrued to %s", invoice.Number, asOf.Format("2006-01-02")),
	}
}

// SimpleInterest calculates simple (non-compounding) daily interest over a
// stream of entries ordered by timestamp ascending, where each entry changes
// the interest-bearing balance. ratePct is a percentage, e.g. 8.00 for 8%
// p.a.; the daily rate is ratePct/36500. begin optionally narrows the start
// of the interest period. The result is unrounded; callers round once at
// the boundary.
func SimpleInterest(entries []domain.Entry, ratePct decimal.Decimal, interestDate time.Time, begin *time.Time) decimal.Decimal {
	accum := decimal.Zero
	if len(entries) == 0 {
		return accum
	}
	dailyRate := ratePct.Div(decimal.NewFromInt(36500))
	end := dateOf(interestDate)

	list := entries
	if dateOf(list[len(list)-1].Timestamp).Before(end) {
		// sentinel so the last balance accrues through the interest date
		list = append(append([]domain.Entry(nil), list...), domain.Entry{Timestamp: end})
	}

	bal := list[0].Amount.Decimal()
	cur := dateOf(list[0].Timestamp)
	if begin != nil && dateOf(*begin).After(cur) {
		cur = dateOf(*begin)
	}

	done := false
	for _, e := range list[1:] {
		next := dateOf(e.Timestamp)
		if begin != nil && dateOf(*begin).After(next) {
			next = dateOf(*begin)
		}
		if next.After(end) {
			next = end
			done = true
		}
		days := int64(next.Sub(cur).Hours() / 24)
		if days > 0 {
			accum = accum.Add(bal.Mul(dailyRate).Mul(decimal.NewFromInt(days)))
			cur = next
		}
		bal = bal.Add(e.Amount.Decimal())
		if done {
			break
		}
	}
	return accum
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
