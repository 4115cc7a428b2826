package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ptdat/roomledger/internal/allocation"
	"github.com/ptdat/roomledger/internal/cache"
	"github.com/ptdat/roomledger/internal/metrics"
	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/notify"
	"github.com/ptdat/roomledger/internal/storage"
)

// InvoiceService manages invoices: creation, personalized reads, deletion,
// and payment application.
type InvoiceService struct {
	store    storage.Store
	views    cache.Cache
	notifier notify.Notifier
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(store storage.Store, views cache.Cache, notifier notify.Notifier) *InvoiceService {
	return &InvoiceService{store: store, views: views, notifier: notifier}
}

// CreateInvoiceInput carries everything needed to record an invoice.
type CreateInvoiceInput struct {
	RoomID         string
	Title          string
	Amount         float64
	Type           models.InvoiceType
	SplitMethod    models.SplitMethod
	MonthApplied   string
	ApplyTo        []string
	SplitMap       map[string]float64
	AdvancePayerID string
	PayTo          string
	DueDate        int64
}

// CreateInvoice validates and records a new invoice. The caller must be a
// room member; every applicable member must belong to the room.
func (s *InvoiceService) CreateInvoice(ctx context.Context, callerID string, in CreateInvoiceInput) (*models.Invoice, error) {
	if _, err := s.store.GetMembership(ctx, in.RoomID, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}

	inv := &models.Invoice{
		RoomID:         in.RoomID,
		Title:          in.Title,
		Amount:         in.Amount,
		Type:           in.Type,
		SplitMethod:    in.SplitMethod,
		MonthApplied:   in.MonthApplied,
		ApplyTo:        in.ApplyTo,
		SplitMap:       in.SplitMap,
		AdvancePayerID: in.AdvancePayerID,
		PayTo:          in.PayTo,
		DueDate:        in.DueDate,
		CreatedBy:      callerID,
	}
	if inv.SplitMethod == "" {
		inv.SplitMethod = models.DefaultSplitMethod(inv.Type)
	}

	if err := s.validateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		slog.Error("CreateInvoice failed", "room_id", in.RoomID, "error", err)
		return nil, err
	}

	s.views.InvalidateRoom(ctx, inv.RoomID)
	s.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventInvoiceCreated,
		RoomID:    inv.RoomID,
		InvoiceID: inv.ID,
		UserID:    callerID,
	})

	slog.Info("Invoice created", "invoice_id", inv.ID, "room_id", inv.RoomID, "amount", inv.Amount, "split_method", inv.SplitMethod)
	return inv, nil
}

func (s *InvoiceService) validateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !inv.Type.Valid() {
		return fmt.Errorf("%w: invalid invoice type %q", ErrValidation, inv.Type)
	}
	if !inv.SplitMethod.Valid() {
		return fmt.Errorf("%w: invalid split method %q", ErrValidation, inv.SplitMethod)
	}
	if len(inv.ApplyTo) == 0 {
		return ErrEmptyApplyTo
	}

	room, err := s.store.GetRoom(ctx, inv.RoomID)
	if err != nil {
		return err
	}
	memberSet := make(map[string]bool, len(room.Members))
	for _, m := range room.Members {
		memberSet[m.UserID] = true
	}
	seen := make(map[string]bool, len(inv.ApplyTo))
	for _, id := range inv.ApplyTo {
		if !memberSet[id] {
			return fmt.Errorf("%w: %s", ErrNotRoomMember, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate member %s in apply list", ErrValidation, id)
		}
		seen[id] = true
	}

	// Monthly costs must name their presence period. Other invoices may
	// carry a month for bookkeeping, but it must at least parse.
	if inv.SplitMethod == models.SplitPresence || inv.Type == models.InvoiceUtility || inv.Type == models.InvoiceRent {
		if inv.MonthApplied == "" {
			return fmt.Errorf("%w: %s invoices require a month (YYYY-MM)", ErrValidation, inv.Type)
		}
	}
	if inv.MonthApplied != "" {
		if _, _, err := models.ParseMonth(inv.MonthApplied); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	if inv.SplitMethod == models.SplitFixed || inv.SplitMethod == models.SplitPercentage {
		for _, id := range inv.ApplyTo {
			if _, ok := inv.SplitMap[id]; !ok {
				return fmt.Errorf("%w: %s", allocation.ErrNoSplitEntry, id)
			}
		}
	}

	if inv.AdvancePayerID != "" && !inv.AppliesTo(inv.AdvancePayerID) {
		return fmt.Errorf("%w: advance payer %s is not among applicable members", ErrValidation, inv.AdvancePayerID)
	}

	return nil
}

// ListRoomInvoices returns every invoice of the room personalized for the
// caller, served from the room-view cache when possible.
func (s *InvoiceService) ListRoomInvoices(ctx context.Context, callerID, roomID string) ([]*models.PersonalInvoice, error) {
	if _, err := s.store.GetMembership(ctx, roomID, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}

	key := cache.Key{RoomID: roomID, UserID: callerID, View: cache.ViewInvoices}
	if raw, ok := s.views.Get(ctx, key); ok {
		var cached []*models.PersonalInvoice
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// A corrupt entry is treated as a miss and overwritten below.
		slog.Warn("Dropping corrupt cache entry", "key", key.String())
	}

	invoices, err := s.store.ListRoomInvoices(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	personal := make([]*models.PersonalInvoice, 0, len(invoices))
	for _, inv := range invoices {
		p, err := s.personalize(ctx, inv, callerID, now)
		if err != nil {
			return nil, err
		}
		personal = append(personal, p)
	}

	if raw, err := json.Marshal(personal); err == nil {
		s.views.Set(ctx, key, raw, 0)
	}

	return personal, nil
}

// GetInvoice returns one invoice personalized for the caller.
func (s *InvoiceService) GetInvoice(ctx context.Context, callerID, invoiceID string) (*models.PersonalInvoice, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetMembership(ctx, inv.RoomID, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}
	return s.personalize(ctx, inv, callerID, time.Now())
}

// DeleteInvoice removes an invoice. Allowed for its creator or a member with
// delete-invoice permission.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, callerID, invoiceID string) error {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}

	caller, err := s.store.GetMembership(ctx, inv.RoomID, callerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	if inv.CreatedBy != callerID && !models.HasPermission(models.ActionDeleteInvoice, caller.Role) {
		return ErrPermissionDenied
	}

	if err := s.store.DeleteInvoice(ctx, invoiceID); err != nil {
		return err
	}

	s.views.InvalidateRoom(ctx, inv.RoomID)
	s.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventInvoiceDeleted,
		RoomID:    inv.RoomID,
		InvoiceID: invoiceID,
		UserID:    callerID,
	})

	slog.Info("Invoice deleted", "invoice_id", invoiceID, "by", callerID)
	return nil
}

// ApplyPayment records that the caller paid toward their own share.
//
// The owed amount is re-derived at payment time rather than trusted from the
// client, the cumulative entry is clamped to the rounded share, and a second
// full payment is rejected. Two racing payments from the same payer resolve
// to last-write-wins; the clamp bounds the damage.
func (s *InvoiceService) ApplyPayment(ctx context.Context, callerID, invoiceID string, amount float64) (*models.PersonalInvoice, error) {
	if amount <= 0 {
		metrics.PaymentsRejected.WithLabelValues("invalid_amount").Inc()
		return nil, ErrInvalidAmount
	}

	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.AppliesTo(callerID) {
		metrics.PaymentsRejected.WithLabelValues("not_applicable").Inc()
		return nil, ErrNotApplicable
	}

	records, err := s.presenceFor(ctx, inv)
	if err != nil {
		return nil, err
	}

	gross, payable, err := allocation.Share(inv, callerID, records)
	if err != nil {
		return nil, err
	}
	metrics.AllocationsComputed.WithLabelValues(string(inv.SplitMethod)).Inc()
	if !payable {
		metrics.PaymentsRejected.WithLabelValues("not_payable").Inc()
		return nil, ErrNotPayable
	}

	owed := allocation.Round(gross)

	// Effective payments include the advance payer's synthetic settled entry,
	// so a pre-paying member cannot pay their own share twice.
	payments, err := allocation.EffectivePayments(inv, records)
	if err != nil {
		return nil, err
	}
	existing := 0.0
	for _, p := range payments {
		if p.PaidBy == callerID {
			existing = p.Amount
		}
	}
	if existing >= owed {
		metrics.PaymentsRejected.WithLabelValues("already_settled").Inc()
		return nil, ErrAlreadySettled
	}

	// Overpayment beyond the computed share is capped, never banked as
	// credit; there is no refund workflow in this domain.
	newAmount := existing + amount
	if newAmount > owed {
		newAmount = owed
	}

	payment := models.Payment{PaidBy: callerID, Amount: newAmount, PaidAt: time.Now().Unix()}
	if err := s.store.UpsertPayment(ctx, invoiceID, payment); err != nil {
		return nil, err
	}
	metrics.PaymentsApplied.Inc()

	s.views.InvalidateRoom(ctx, inv.RoomID)
	s.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventPaymentApplied,
		RoomID:    inv.RoomID,
		InvoiceID: invoiceID,
		UserID:    callerID,
	})

	slog.Info("Payment applied", "invoice_id", invoiceID, "payer", callerID, "cumulative", newAmount, "owed", owed)

	updated, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.personalize(ctx, updated, callerID, time.Now())
}

// personalize derives the caller's view, fetching presence data when the
// invoice's split needs it. Invoice and presence rows are read together so
// the derived view is consistent enough; payability guards the rest.
func (s *InvoiceService) personalize(ctx context.Context, inv *models.Invoice, callerID string, now time.Time) (*models.PersonalInvoice, error) {
	records, err := s.presenceFor(ctx, inv)
	if err != nil {
		return nil, err
	}
	p, err := allocation.Personalize(inv, callerID, records, now)
	if err != nil {
		return nil, err
	}
	metrics.AllocationsComputed.WithLabelValues(string(inv.SplitMethod)).Inc()
	return p, nil
}

func (s *InvoiceService) presenceFor(ctx context.Context, inv *models.Invoice) ([]*models.MonthPresence, error) {
	method := inv.SplitMethod
	if !method.Valid() {
		method = models.DefaultSplitMethod(inv.Type)
	}
	if method != models.SplitPresence || inv.MonthApplied == "" {
		return nil, nil
	}
	return s.store.GetMonthPresence(ctx, inv.RoomID, inv.MonthApplied)
}
