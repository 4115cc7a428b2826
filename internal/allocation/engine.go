// Package allocation computes each member's share of a shared invoice.
//
// Everything here is pure computation: no I/O, no clocks except the ones
// passed in. Callers load the invoice and the presence records for its month
// together and hand both in.
package allocation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ptdat/roomledger/internal/models"
)

var (
	// ErrNoMembers means the invoice has an empty ApplyTo list. The
	// invoice is unusable until someone edits it.
	ErrNoMembers = errors.New("invoice has no applicable members")

	// ErrMonthRequired means a presence-weighted invoice carries no month,
	// so there is no calendar period to weight against.
	ErrMonthRequired = errors.New("presence split requires a month")

	// ErrNoSplitEntry means a fixed or percentage split table lacks an
	// entry for the requested member.
	ErrNoSplitEntry = errors.New("split table has no entry for member")
)

// Share computes memberID's gross share of the invoice and whether the
// allocation is payable (stable enough to collect money against).
//
// Data incompleteness is not an error: missing or half-filled presence data
// degrades to an equal-split display value with payable=false. Errors are
// reserved for domain-rule violations that require editing the invoice.
func Share(inv *models.Invoice, memberID string, records []*models.MonthPresence) (float64, bool, error) {
	if len(inv.ApplyTo) == 0 {
		return 0, false, ErrNoMembers
	}

	method := inv.SplitMethod
	if !method.Valid() {
		method = models.DefaultSplitMethod(inv.Type)
	}

	switch method {
	case models.SplitPresence:
		if inv.MonthApplied == "" {
			return 0, false, ErrMonthRequired
		}
		share, payable := presenceShare(inv, memberID, records)
		return share, payable, nil

	case models.SplitFixed:
		amount, ok := inv.SplitMap[memberID]
		if !ok {
			return 0, false, fmt.Errorf("%w: %s", ErrNoSplitEntry, memberID)
		}
		return amount, true, nil

	case models.SplitPercentage:
		pct, ok := inv.SplitMap[memberID]
		if !ok {
			return 0, false, fmt.Errorf("%w: %s", ErrNoSplitEntry, memberID)
		}
		return pct / 100 * inv.Amount, true, nil

	default:
		return equalShare(inv), true, nil
	}
}

func equalShare(inv *models.Invoice) float64 {
	return inv.Amount / float64(len(inv.ApplyTo))
}

// presenceShare distributes the amount proportionally to each member's
// counted days in the invoice's month.
//
// Undetermined days count toward the day pool (so the invoice stays
// computable while people fill in their calendars) but their existence marks
// the result unpayable. Both halves of that policy are deliberate: the number
// shown is the best current estimate, and no money is collected against it
// until every day is determined. Do not "fix" one half without the other.
func presenceShare(inv *models.Invoice, memberID string, records []*models.MonthPresence) (float64, bool) {
	memberDays := make(map[string]int, len(inv.ApplyTo))
	totalDays := 0
	undetermined := false

	for _, rec := range records {
		if !inv.AppliesTo(rec.UserID) {
			continue
		}
		if _, seen := memberDays[rec.UserID]; seen {
			continue
		}
		days, hasUndetermined := rec.CountedDays()
		memberDays[rec.UserID] = days
		totalDays += days
		if hasUndetermined {
			undetermined = true
		}
	}

	// Members who never touched the calendar have no row at all. A partial
	// day pool would misprice everyone, so fall back to an equal split as
	// the display value and withhold payability until the data completes.
	// A zero pool (every recorded day absent) gets the same treatment.
	if len(memberDays) < len(inv.ApplyTo) || totalDays == 0 {
		return equalShare(inv), false
	}

	// One multiplication so rounding only ever happens once, downstream.
	share := float64(memberDays[memberID]) * (inv.Amount / float64(totalDays))
	return share, !undetermined
}

// Round rounds to the nearest whole currency unit. The domain currency has
// no subdivision, and this is the single rounding point for displayed and
// stored amounts. The sum of all members' rounded shares may drift from the
// invoice total by up to one unit per member; that is accepted tolerance.
func Round(v float64) float64 {
	return math.Round(v)
}

// EffectivePayments returns the invoice's payments plus a synthetic entry
// for the advance payer, who pre-paid the charge before the invoice was
// recorded and is therefore considered settled for their own share.
func EffectivePayments(inv *models.Invoice, records []*models.MonthPresence) ([]models.Payment, error) {
	payments := make([]models.Payment, len(inv.Payments))
	copy(payments, inv.Payments)

	advance := inv.AdvancePayerID
	if advance == "" || !inv.AppliesTo(advance) || inv.PaymentBy(advance) != nil {
		return payments, nil
	}

	gross, _, err := Share(inv, advance, records)
	if err != nil {
		return nil, err
	}
	payments = append(payments, models.Payment{
		PaidBy: advance,
		Amount: Round(gross),
		PaidAt: inv.CreatedAt,
	})
	return payments, nil
}

// Remaining computes the invoice-wide unpaid balance.
func Remaining(inv *models.Invoice, records []*models.MonthPresence) (float64, error) {
	payments, err := EffectivePayments(inv, records)
	if err != nil {
		return 0, err
	}
	remaining := inv.Amount
	for _, p := range payments {
		remaining -= p.Amount
	}
	return remaining, nil
}

// Status derives the invoice status: paid once nothing remains, otherwise
// overdue past the due date, otherwise pending.
func Status(inv *models.Invoice, records []*models.MonthPresence, now time.Time) (models.InvoiceStatus, error) {
	remaining, err := Remaining(inv, records)
	if err != nil {
		return "", err
	}
	switch {
	case remaining <= 0:
		return models.StatusPaid, nil
	case inv.DueDate > 0 && now.Unix() > inv.DueDate:
		return models.StatusOverdue, nil
	default:
		return models.StatusPending, nil
	}
}

// Personalize derives memberID's view of the invoice: their net share,
// whether they have settled it, and whether payment may be collected.
func Personalize(inv *models.Invoice, memberID string, records []*models.MonthPresence, now time.Time) (*models.PersonalInvoice, error) {
	gross, payable, err := Share(inv, memberID, records)
	if err != nil {
		return nil, err
	}

	payments, err := EffectivePayments(inv, records)
	if err != nil {
		return nil, err
	}

	var myPayment *models.Payment
	paid := 0.0
	remaining := inv.Amount
	for i := range payments {
		remaining -= payments[i].Amount
		if payments[i].PaidBy == memberID {
			myPayment = &payments[i]
			paid = payments[i].Amount
		}
	}

	status := models.StatusPending
	switch {
	case remaining <= 0:
		status = models.StatusPaid
	case inv.DueDate > 0 && now.Unix() > inv.DueDate:
		status = models.StatusOverdue
	}

	personal := Round(gross - paid)
	return &models.PersonalInvoice{
		Invoice:        *inv,
		PersonalAmount: personal,
		IsPaidByMe:     myPayment != nil && personal <= 0,
		MyPayment:      myPayment,
		IsPayable:      payable,
		Status:         status,
		Remaining:      remaining,
	}, nil
}
