package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentMode selects which book a payment lands in.
type PaymentMode string

const (
	PaymentCash PaymentMode = "cash"
	PaymentBank PaymentMode = "bank"
)

// Valid reports whether m is one of the known payment modes.
func (m PaymentMode) Valid() bool {
	return m == PaymentCash || m == PaymentBank
}

// Payment is one entry in the cash or bank book: money received from a
// customer or paid to a supplier, optionally tied to a sales document.
type Payment struct {
	ID          string          `json:"id"`
	PartyType   PartyType       `json:"party_type"`
	PartyID     string          `json:"party_id"`
	PartyName   string          `json:"party_name"` // snapshot at entry time
	DocumentID  *string         `json:"document_id,omitempty"`
	Mode        PaymentMode     `json:"mode"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"` // YYYY-MM-DD
	Reference   string          `json:"reference"`    // cheque/UTR number for bank entries
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreatePaymentRequest is the payment entry form. Amount is free-form
// numeric text, decoded once here.
type CreatePaymentRequest struct {
	PartyType   PartyType   `json:"party_type"`
	PartyID     string      `json:"party_id"`
	DocumentID  string      `json:"document_id"`
	Mode        PaymentMode `json:"mode"`
	Amount      string      `json:"amount"`
	PaymentDate string      `json:"payment_date"`
	Reference   string      `json:"reference"`
	Notes       string      `json:"notes"`
}

// PaymentService records payments and serves the bank and cash books.
type PaymentService interface {
	Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error)
	// Book lists payments for one mode, optionally bounded by dates
	// (YYYY-MM-DD, empty = unbounded).
	Book(ctx context.Context, mode PaymentMode, from, to string) ([]Payment, error)
	Get(ctx context.Context, id string) (*Payment, error)
}

type paymentService struct {
	pool    *pgxpool.Pool
	parties PartyService
}

// NewPaymentService constructs a PaymentService backed by PostgreSQL.
func NewPaymentService(pool *pgxpool.Pool, parties PartyService) PaymentService {
	return &paymentService{pool: pool, parties: parties}
}

func (s *paymentService) Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	if !req.PartyType.Valid() {
		return nil, NewValidationError("party_type", "must be customer or supplier")
	}
	if req.PartyID == "" {
		return nil, NewValidationError("party_id", "party is required")
	}
	if !req.Mode.Valid() {
		return nil, NewValidationError("mode", "must be cash or bank")
	}
	amount := ParseAmount(req.Amount)
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "amount must be positive")
	}
	date := req.PaymentDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, NewValidationError("payment_date", "must be YYYY-MM-DD")
	}

	snapshot := s.parties.SnapshotTx(ctx, s.pool, req.PartyID)

	var docID *string
	if req.DocumentID != "" {
		docID = &req.DocumentID
	}

	var p Payment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO payments (id, party_type, party_id, party_name, document_id, mode, amount, payment_date, reference, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, party_type, party_id, party_name, document_id, mode, amount, payment_date::text, reference, notes, created_at
	`, uuid.NewString(), req.PartyType, req.PartyID, snapshot.Name, docID, req.Mode, amount, date, req.Reference, req.Notes).Scan(
		&p.ID, &p.PartyType, &p.PartyID, &p.PartyName, &p.DocumentID, &p.Mode,
		&p.Amount, &p.PaymentDate, &p.Reference, &p.Notes, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return &p, nil
}

func (s *paymentService) Book(ctx context.Context, mode PaymentMode, from, to string) ([]Payment, error) {
	if !mode.Valid() {
		return nil, NewValidationError("mode", "must be cash or bank")
	}

	query := `
		SELECT id, party_type, party_id, party_name, document_id, mode, amount, payment_date::text, reference, notes, created_at
		FROM payments
		WHERE mode = $1
	`
	args := []any{mode}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND payment_date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND payment_date <= $%d", len(args))
	}
	query += " ORDER BY payment_date DESC, created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s book: %w", mode, err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PartyType, &p.PartyID, &p.PartyName, &p.DocumentID, &p.Mode,
			&p.Amount, &p.PaymentDate, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *paymentService) Get(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	err := s.pool.QueryRow(ctx, `
		SELECT id, party_type, party_id, party_name, document_id, mode, amount, payment_date::text, reference, notes, created_at
		FROM payments
		WHERE id = $1
	`, id).Scan(&p.ID, &p.PartyType, &p.PartyID, &p.PartyName, &p.DocumentID, &p.Mode,
		&p.Amount, &p.PaymentDate, &p.Reference, &p.Notes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "payment", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", id, err)
	}
	return &p, nil
}
