package models

// InvoiceType categorizes what an invoice charges for.
type InvoiceType string

const (
	// InvoiceUtility covers recurring metered costs (electricity, water, ...).
	InvoiceUtility InvoiceType = "utility"
	// InvoiceRent covers the monthly room cost.
	InvoiceRent InvoiceType = "rent"
	// InvoiceOther covers one-off shared purchases.
	InvoiceOther InvoiceType = "other"
)

// Valid reports whether t is a known invoice type.
func (t InvoiceType) Valid() bool {
	return t == InvoiceUtility || t == InvoiceRent || t == InvoiceOther
}

// SplitMethod is the strategy used to divide an invoice among its members.
type SplitMethod string

const (
	// SplitEqual divides the amount evenly across ApplyTo.
	SplitEqual SplitMethod = "equal"
	// SplitPresence weights shares by present-day counts for MonthApplied.
	SplitPresence SplitMethod = "presence"
	// SplitFixed uses a pre-declared absolute amount per member.
	SplitFixed SplitMethod = "fixed"
	// SplitPercentage uses a pre-declared percentage per member.
	SplitPercentage SplitMethod = "percentage"
)

// Valid reports whether m is a known split method.
func (m SplitMethod) Valid() bool {
	return m == SplitEqual || m == SplitPresence || m == SplitFixed || m == SplitPercentage
}

// DefaultSplitMethod returns the split method an invoice type implies when
// none is given: monthly costs split by presence, everything else equally.
func DefaultSplitMethod(t InvoiceType) SplitMethod {
	if t == InvoiceUtility || t == InvoiceRent {
		return SplitPresence
	}
	return SplitEqual
}

// InvoiceStatus is derived from payments and the due date, never stored.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// Payment is one member's cumulative payment toward an invoice.
// At most one entry exists per payer; repeated payments update it in place.
type Payment struct {
	PaidBy string  `json:"paid_by"`
	Amount float64 `json:"amount"`
	PaidAt int64   `json:"paid_at"`
}

// Invoice is a payable obligation shared by a room's members.
type Invoice struct {
	// ID is the unique identifier for the invoice (UUID format).
	ID string `json:"id"`

	// RoomID is the room this invoice belongs to.
	RoomID string `json:"room_id"`

	// Title is a short human-readable description.
	Title string `json:"title"`

	// Amount is the total charge. Always positive.
	Amount float64 `json:"amount"`

	// Type categorizes the charge and implies the default split method.
	Type InvoiceType `json:"type"`

	// SplitMethod selects the allocation strategy.
	SplitMethod SplitMethod `json:"split_method"`

	// MonthApplied is the YYYY-MM key linking the invoice to a presence
	// period. Required for utility and rent invoices, optional otherwise.
	MonthApplied string `json:"month_applied,omitempty"`

	// ApplyTo lists the member IDs obligated to split this invoice.
	// Never empty.
	ApplyTo []string `json:"apply_to"`

	// SplitMap holds per-member amounts (fixed) or percentages (percentage).
	// Every member of ApplyTo must have an entry for those methods.
	SplitMap map[string]float64 `json:"split_map,omitempty"`

	// Payments holds each payer's cumulative payment, one entry per payer.
	Payments []Payment `json:"payments"`

	// AdvancePayerID names a member who pre-paid the charge on behalf of
	// the group before the invoice was recorded. Their own share is
	// considered settled; everyone else pays them back.
	AdvancePayerID string `json:"advance_payer_id,omitempty"`

	// PayTo is an optional recipient reference: a member ID, a bank
	// account string, or a QR payload URL.
	PayTo string `json:"pay_to,omitempty"`

	// DueDate is the Unix timestamp the invoice must be settled by.
	// Zero means no due date.
	DueDate int64 `json:"due_date,omitempty"`

	// CreatedBy is the user who recorded the invoice.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the invoice was recorded.
	CreatedAt int64 `json:"created_at"`
}

// PaymentBy returns the payer's payment entry, or nil if they have none.
func (inv *Invoice) PaymentBy(userID string) *Payment {
	for i := range inv.Payments {
		if inv.Payments[i].PaidBy == userID {
			return &inv.Payments[i]
		}
	}
	return nil
}

// AppliesTo reports whether userID is obligated to split this invoice.
func (inv *Invoice) AppliesTo(userID string) bool {
	for _, id := range inv.ApplyTo {
		if id == userID {
			return true
		}
	}
	return false
}

// PersonalInvoice is an invoice enriched with one member's view of it.
// Derived on read, never persisted.
type PersonalInvoice struct {
	Invoice

	// PersonalAmount is this member's share net of what they already paid,
	// rounded to the whole currency unit. Negative means over-paid.
	PersonalAmount float64 `json:"personal_amount"`

	// IsPaidByMe reports whether this member has settled their share.
	IsPaidByMe bool `json:"is_paid_by_me"`

	// MyPayment is this member's own payment entry, if any.
	MyPayment *Payment `json:"my_payment,omitempty"`

	// IsPayable reports whether the allocation is fully determined. While
	// false the UI shows the fallback share but must not collect money.
	IsPayable bool `json:"is_payable"`

	// Status is the derived invoice-wide status.
	Status InvoiceStatus `json:"status"`

	// Remaining is the invoice-wide unpaid balance.
	Remaining float64 `json:"remaining"`
}
