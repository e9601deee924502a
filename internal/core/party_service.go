package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers inside and outside transactions.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PartyService manages the customer and supplier registries.
type PartyService interface {
	Create(ctx context.Context, p Party) (*Party, error)
	Get(ctx context.Context, id string) (*Party, error)
	List(ctx context.Context, partyType PartyType) ([]Party, error)
	Update(ctx context.Context, p Party) (*Party, error)
	Delete(ctx context.Context, id string) error

	// SnapshotTx resolves a party id to its display snapshot within the
	// caller's transaction. Resolution is best-effort: an unknown or stale id
	// returns an empty snapshot rather than an error, so document creation is
	// never blocked on a missing party record.
	SnapshotTx(ctx context.Context, q pgxQuerier, id string) PartySnapshot
}

type partyService struct {
	pool *pgxpool.Pool
}

// NewPartyService constructs a PartyService backed by PostgreSQL.
func NewPartyService(pool *pgxpool.Pool) PartyService {
	return &partyService{pool: pool}
}

func (s *partyService) Create(ctx context.Context, p Party) (*Party, error) {
	if !p.Type.Valid() {
		return nil, NewValidationError("party_type", "must be customer or supplier")
	}
	if p.Name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var out Party
	err := s.pool.QueryRow(ctx, `
		INSERT INTO parties (id, party_type, name, address, phone, email, tax_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, party_type, name, address, phone, email, tax_id, created_at, updated_at
	`, p.ID, p.Type, p.Name, p.Address, p.Phone, p.Email, p.TaxID).Scan(
		&out.ID, &out.Type, &out.Name, &out.Address, &out.Phone, &out.Email, &out.TaxID,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}
	return &out, nil
}

func (s *partyService) Get(ctx context.Context, id string) (*Party, error) {
	var p Party
	err := s.pool.QueryRow(ctx, `
		SELECT id, party_type, name, address, phone, email, tax_id, created_at, updated_at
		FROM parties
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Type, &p.Name, &p.Address, &p.Phone, &p.Email, &p.TaxID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "party", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch party %s: %w", id, err)
	}
	return &p, nil
}

func (s *partyService) List(ctx context.Context, partyType PartyType) ([]Party, error) {
	if !partyType.Valid() {
		return nil, NewValidationError("party_type", "must be customer or supplier")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, party_type, name, address, phone, email, tax_id, created_at, updated_at
		FROM parties
		WHERE party_type = $1
		ORDER BY name
	`, partyType)
	if err != nil {
		return nil, fmt.Errorf("failed to query parties: %w", err)
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Type, &p.Name, &p.Address, &p.Phone, &p.Email, &p.TaxID,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (s *partyService) Update(ctx context.Context, p Party) (*Party, error) {
	if p.Name == "" {
		return nil, NewValidationError("name", "name is required")
	}

	var out Party
	err := s.pool.QueryRow(ctx, `
		UPDATE parties
		SET name = $1, address = $2, phone = $3, email = $4, tax_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING id, party_type, name, address, phone, email, tax_id, created_at, updated_at
	`, p.Name, p.Address, p.Phone, p.Email, p.TaxID, p.ID).Scan(
		&out.ID, &out.Type, &out.Name, &out.Address, &out.Phone, &out.Email, &out.TaxID,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "party", Ref: p.ID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update party %s: %w", p.ID, err)
	}
	return &out, nil
}

// Delete removes a party. Documents and payments keep their snapshots, so no
// cascading cleanup happens.
func (s *partyService) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM parties WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete party %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "party", Ref: id}
	}
	return nil
}

func (s *partyService) SnapshotTx(ctx context.Context, q pgxQuerier, id string) PartySnapshot {
	var snap PartySnapshot
	err := q.QueryRow(ctx,
		"SELECT name, address, phone, email, tax_id FROM parties WHERE id = $1",
		id,
	).Scan(&snap.Name, &snap.Address, &snap.Phone, &snap.Email, &snap.TaxID)
	if err != nil {
		// Best effort: stale ids produce empty snapshot fields.
		return PartySnapshot{}
	}
	return snap
}
