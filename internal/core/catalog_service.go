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

// CatalogService manages processed-inventory records. Increments go through
// ReceiveStock (purchase entries and production batches); decrements happen
// exclusively inside the sales-document creation transaction. No other code
// path may write the quantity column.
type CatalogService interface {
	Create(ctx context.Context, name, unit string) (*CatalogItem, error)
	Get(ctx context.Context, id string) (*CatalogItem, error)
	List(ctx context.Context) ([]CatalogItem, error)
	// UpdateDetails renames an item or changes its unit. The on-hand quantity
	// is deliberately not editable here.
	UpdateDetails(ctx context.Context, id, name, unit string) (*CatalogItem, error)

	// ReceiveStock atomically increments an item's on-hand quantity and
	// records a RECEIPT movement. source describes where the stock came from
	// (e.g. a purchase entry or production batch reference).
	ReceiveStock(ctx context.Context, id string, qty decimal.Decimal, date, source string) (*CatalogItem, error)

	Movements(ctx context.Context, itemID string) ([]StockMovement, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) Create(ctx context.Context, name, unit string) (*CatalogItem, error) {
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}

	var item CatalogItem
	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_items (id, name, unit, quantity)
		VALUES ($1, $2, $3, 0)
		RETURNING id, name, unit, quantity, last_updated::text, created_at
	`, uuid.NewString(), name, unit).Scan(
		&item.ID, &item.Name, &item.Unit, &item.Quantity, &item.LastUpdated, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return &item, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*CatalogItem, error) {
	var item CatalogItem
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, unit, quantity, last_updated::text, created_at
		FROM catalog_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Unit, &item.Quantity, &item.LastUpdated, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "catalog item", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog item %s: %w", id, err)
	}
	return &item, nil
}

func (s *catalogService) List(ctx context.Context) ([]CatalogItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, unit, quantity, last_updated::text, created_at
		FROM catalog_items
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	var items []CatalogItem
	for rows.Next() {
		var item CatalogItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &item.Quantity,
			&item.LastUpdated, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *catalogService) UpdateDetails(ctx context.Context, id, name, unit string) (*CatalogItem, error) {
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}

	var item CatalogItem
	err := s.pool.QueryRow(ctx, `
		UPDATE catalog_items
		SET name = $1, unit = $2
		WHERE id = $3
		RETURNING id, name, unit, quantity, last_updated::text, created_at
	`, name, unit, id).Scan(&item.ID, &item.Name, &item.Unit, &item.Quantity, &item.LastUpdated, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "catalog item", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update catalog item %s: %w", id, err)
	}
	return &item, nil
}

func (s *catalogService) ReceiveStock(ctx context.Context, id string, qty decimal.Decimal, date, source string) (*CatalogItem, error) {
	if !qty.IsPositive() {
		return nil, NewValidationError("quantity", fmt.Sprintf("receive quantity must be positive, got %s", qty))
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, NewValidationError("date", "must be YYYY-MM-DD")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT quantity FROM catalog_items WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "catalog item", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock catalog item %s: %w", id, err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE catalog_items SET quantity = $1, last_updated = $2 WHERE id = $3",
		current.Add(qty), date, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment stock for item %s: %w", id, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (catalog_item_id, movement_type, quantity, movement_date, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, id, MovementReceipt, qty, date, source)
	if err != nil {
		return nil, fmt.Errorf("failed to insert receipt movement for item %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock receipt: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *catalogService) Movements(ctx context.Context, itemID string) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, catalog_item_id, movement_type, quantity, document_id, movement_date::text, notes, created_at
		FROM stock_movements
		WHERE catalog_item_id = $1
		ORDER BY id DESC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.CatalogItemID, &m.MovementType, &m.Quantity,
			&m.DocumentID, &m.MovementDate, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
