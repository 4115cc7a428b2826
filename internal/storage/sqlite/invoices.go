package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/storage"
)

// CreateInvoice persists an invoice with its member list, split table, and
// any seed payments in one transaction.
func (s *SQLiteStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt == 0 {
		inv.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (id, room_id, title, amount, type, split_method,
			month_applied, advance_payer_id, pay_to, due_date, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.RoomID, inv.Title, inv.Amount, inv.Type, inv.SplitMethod,
		inv.MonthApplied, inv.AdvancePayerID, inv.PayTo, inv.DueDate, inv.CreatedBy, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	for _, userID := range inv.ApplyTo {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO invoice_members (invoice_id, user_id) VALUES (?, ?)",
			inv.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert invoice member: %w", err)
		}
	}

	for userID, value := range inv.SplitMap {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO invoice_splits (invoice_id, user_id, value) VALUES (?, ?, ?)",
			inv.ID, userID, value,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split entry: %w", err)
		}
	}

	for _, p := range inv.Payments {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO invoice_payments (invoice_id, paid_by, amount, paid_at) VALUES (?, ?, ?, ?)",
			inv.ID, p.PaidBy, p.Amount, p.PaidAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetInvoice retrieves a complete invoice by ID.
func (s *SQLiteStore) GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, title, amount, type, split_method, month_applied,
			advance_payer_id, pay_to, due_date, created_by, created_at
		FROM invoices WHERE id = ?
	`, invoiceID).Scan(
		&inv.ID, &inv.RoomID, &inv.Title, &inv.Amount, &inv.Type, &inv.SplitMethod,
		&inv.MonthApplied, &inv.AdvancePayerID, &inv.PayTo, &inv.DueDate, &inv.CreatedBy, &inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := s.loadInvoiceDetails(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListRoomInvoices retrieves all invoices for a room, newest first.
func (s *SQLiteStore) ListRoomInvoices(ctx context.Context, roomID string) ([]*models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, title, amount, type, split_method, month_applied,
			advance_payer_id, pay_to, due_date, created_by, created_at
		FROM invoices WHERE room_id = ?
		ORDER BY created_at DESC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv := &models.Invoice{}
		err := rows.Scan(
			&inv.ID, &inv.RoomID, &inv.Title, &inv.Amount, &inv.Type, &inv.SplitMethod,
			&inv.MonthApplied, &inv.AdvancePayerID, &inv.PayTo, &inv.DueDate, &inv.CreatedBy, &inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	for _, inv := range invoices {
		if err := s.loadInvoiceDetails(ctx, inv); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// loadInvoiceDetails populates ApplyTo, SplitMap, and Payments.
func (s *SQLiteStore) loadInvoiceDetails(ctx context.Context, inv *models.Invoice) error {
	memberRows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM invoice_members WHERE invoice_id = ? ORDER BY user_id",
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get invoice members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var userID string
		if err := memberRows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan invoice member: %w", err)
		}
		inv.ApplyTo = append(inv.ApplyTo, userID)
	}
	if err := memberRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate invoice members: %w", err)
	}

	splitRows, err := s.db.QueryContext(ctx,
		"SELECT user_id, value FROM invoice_splits WHERE invoice_id = ?",
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get split entries: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var userID string
		var value float64
		if err := splitRows.Scan(&userID, &value); err != nil {
			return fmt.Errorf("failed to scan split entry: %w", err)
		}
		if inv.SplitMap == nil {
			inv.SplitMap = make(map[string]float64)
		}
		inv.SplitMap[userID] = value
	}
	if err := splitRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate split entries: %w", err)
	}

	payRows, err := s.db.QueryContext(ctx,
		"SELECT paid_by, amount, paid_at FROM invoice_payments WHERE invoice_id = ? ORDER BY paid_at",
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payments: %w", err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var p models.Payment
		if err := payRows.Scan(&p.PaidBy, &p.Amount, &p.PaidAt); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		inv.Payments = append(inv.Payments, p)
	}
	if err := payRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payments: %w", err)
	}

	return nil
}

// DeleteInvoice removes an invoice; dependent rows cascade.
func (s *SQLiteStore) DeleteInvoice(ctx context.Context, invoiceID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", invoiceID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertPayment writes a payer's cumulative payment entry.
func (s *SQLiteStore) UpsertPayment(ctx context.Context, invoiceID string, p models.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_payments (invoice_id, paid_by, amount, paid_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (invoice_id, paid_by)
		DO UPDATE SET amount = excluded.amount, paid_at = excluded.paid_at
	`, invoiceID, p.PaidBy, p.Amount, p.PaidAt)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}
