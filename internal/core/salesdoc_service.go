package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// createRetries bounds how often a creation is replayed after losing to a
// concurrent writer (serialization failure, deadlock, or a document-number
// collision). Each replay re-reads fresh stock and re-validates.
const createRetries = 3

// SalesDocService creates and queries invoices, quotations and proforma
// invoices. All three kinds share one creation path: line-item aggregation,
// party/item snapshot capture, and the atomic stock deduction.
type SalesDocService interface {
	// Create validates the form state, deducts stock for every referenced
	// catalog item and persists the document, all inside one transaction.
	// Either the stock deduction and the document both become visible, or
	// neither does. Failures are typed: *ValidationError before any write,
	// *NotFoundError / *InsufficientStockError aborting the transaction, or
	// ErrTransientConflict when retries are exhausted.
	Create(ctx context.Context, kind DocKind, req CreateDocumentRequest) (*SalesDocument, error)

	Get(ctx context.Context, kind DocKind, id string) (*SalesDocument, error)
	List(ctx context.Context, kind DocKind, status string) ([]SalesDocument, error)

	// Update performs direct field writes on an existing document. Stock is
	// affected at creation only; edits never re-run the deduction.
	Update(ctx context.Context, kind DocKind, id string, req UpdateDocumentRequest) (*SalesDocument, error)
}

type salesDocService struct {
	pool    *pgxpool.Pool
	parties PartyService
	log     zerolog.Logger
}

// NewSalesDocService constructs a SalesDocService backed by PostgreSQL.
// The party service supplies best-effort snapshots at creation time.
func NewSalesDocService(pool *pgxpool.Pool, parties PartyService, log zerolog.Logger) SalesDocService {
	return &salesDocService{pool: pool, parties: parties, log: log.With().Str("component", "salesdoc").Logger()}
}

func (s *salesDocService) Create(ctx context.Context, kind DocKind, req CreateDocumentRequest) (*SalesDocument, error) {
	if !kind.Valid() {
		return nil, NewValidationError("doc_kind", fmt.Sprintf("unknown document kind %q", kind))
	}
	if !req.PartyType.Valid() {
		return nil, NewValidationError("party_type", "must be customer or supplier")
	}
	if req.PartyID == "" {
		return nil, NewValidationError("party_id", "party is required")
	}

	status := req.Status
	if status == "" {
		status = kind.DefaultStatus()
	}
	if !kind.ValidStatus(status) {
		return nil, NewValidationError("status", fmt.Sprintf("%q is not a valid %s status", status, kind))
	}

	issueDate := req.IssueDate
	if issueDate == "" {
		issueDate = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", issueDate); err != nil {
		return nil, NewValidationError("issue_date", "must be YYYY-MM-DD")
	}

	for i := range req.Lines {
		if req.Lines[i].TaxType == "" {
			req.Lines[i].TaxType = TaxCGSTSGST
		}
		if !req.Lines[i].TaxType.Valid() {
			return nil, NewValidationError("items", fmt.Sprintf("line %d: unknown tax type %q", i+1, req.Lines[i].TaxType))
		}
	}

	lines := Sanitize(ParseLines(req.Lines))
	if len(req.Lines) > 0 && len(lines) == 0 {
		// The user filled in rows but none names an item with a positive
		// quantity; persisting would create a ghost document.
		return nil, NewValidationError("items", "no valid line items: each line needs an item and a positive quantity")
	}

	var totals DocumentTotals
	if len(lines) > 0 {
		totals = Totals(lines)
	} else {
		totals = ManualTotals(req.ManualSubtotal, req.ManualTaxPercent)
	}

	usage := SumByItem(lines)

	var (
		doc *SalesDocument
		err error
	)
	for attempt := 0; attempt < createRetries; attempt++ {
		doc, err = s.createTx(ctx, kind, req, status, issueDate, lines, totals, usage)
		if err == nil {
			return doc, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		s.log.Warn().Err(err).Str("kind", string(kind)).Int("attempt", attempt+1).
			Msg("document creation lost a concurrent conflict, retrying")
	}
	return nil, ErrTransientConflict
}

// createTx runs one attempt of the creation transaction: lock every consumed
// catalog item, validate stock, stage the decrements, then insert the
// document and its lines. A single commit makes everything visible at once.
func (s *salesDocService) createTx(ctx context.Context, kind DocKind, req CreateDocumentRequest,
	status, issueDate string, lines []ParsedLine, totals DocumentTotals, usage map[string]decimal.Decimal) (*SalesDocument, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Best-effort party snapshot: a stale party id yields empty fields, not
	// a failure.
	snapshot := s.parties.SnapshotTx(ctx, tx, req.PartyID)

	// Lock, validate and decrement each distinct item. Quantities for the
	// same item were summed beforehand, so one item is checked exactly once.
	// IDs are locked in sorted order to keep concurrent creations deadlock-free.
	itemInfo := make(map[string]CatalogItem, len(usage))
	for _, itemID := range sortedItemIDs(usage) {
		used := usage[itemID]

		var item CatalogItem
		err := tx.QueryRow(ctx,
			"SELECT id, name, unit, quantity FROM catalog_items WHERE id = $1 FOR UPDATE",
			itemID,
		).Scan(&item.ID, &item.Name, &item.Unit, &item.Quantity)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "catalog item", Ref: itemID}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock catalog item %s: %w", itemID, err)
		}

		next := item.Quantity.Sub(used)
		if next.IsNegative() {
			return nil, &InsufficientStockError{
				ItemID:    itemID,
				Name:      item.Name,
				Unit:      item.Unit,
				Available: item.Quantity,
				Required:  used,
			}
		}

		_, err = tx.Exec(ctx,
			"UPDATE catalog_items SET quantity = $1, last_updated = $2 WHERE id = $3",
			next, issueDate, itemID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to deduct stock for item %s: %w", itemID, err)
		}

		itemInfo[itemID] = item
	}

	docID := uuid.NewString()
	number := GenerateDocNumber(kind, time.Now())

	_, err = tx.Exec(ctx, `
		INSERT INTO sales_documents
			(id, doc_kind, doc_number, manual_number, party_type, party_id,
			 party_name, party_address, party_phone, party_email, party_tax_id,
			 issue_date, subtotal, tax, total, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, docID, kind, number, req.ManualNumber, req.PartyType, req.PartyID,
		snapshot.Name, snapshot.Address, snapshot.Phone, snapshot.Email, snapshot.TaxID,
		issueDate, totals.Subtotal, totals.Tax, totals.Total, status, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", kind, err)
	}

	for i, l := range lines {
		info := itemInfo[l.CatalogItemID]
		_, err = tx.Exec(ctx, `
			INSERT INTO sales_document_lines
				(document_id, line_number, catalog_item_id, name, unit, quantity, rate, tax_type, tax_percent, tax)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, docID, i+1, l.CatalogItemID, info.Name, info.Unit, l.Quantity, l.Rate, l.TaxType, l.TaxPercent, l.Tax)
		if err != nil {
			return nil, fmt.Errorf("failed to insert line %d: %w", i+1, err)
		}
	}

	// Audit trail: one deduction movement per distinct item.
	for _, itemID := range sortedItemIDs(usage) {
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_movements (catalog_item_id, movement_type, quantity, document_id, movement_date, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, itemID, MovementDeduction, usage[itemID].Neg(), docID, issueDate,
			fmt.Sprintf("Consumed by %s %s", kind, number))
		if err != nil {
			return nil, fmt.Errorf("failed to insert stock movement for item %s: %w", itemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit %s creation: %w", kind, err)
	}

	s.log.Info().Str("kind", string(kind)).Str("number", number).
		Str("total", totals.Total.StringFixed(2)).Int("lines", len(lines)).
		Msg("sales document created")

	return s.Get(ctx, kind, docID)
}

// isRetryable reports whether the transaction should be replayed against
// fresh state: serialization failures, deadlocks, and the rare collision of
// two documents drawing the same random number suffix.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	case "23505":
		return pgErr.ConstraintName == "sales_documents_doc_kind_doc_number_key"
	}
	return false
}

func (s *salesDocService) Get(ctx context.Context, kind DocKind, id string) (*SalesDocument, error) {
	var d SalesDocument
	err := s.pool.QueryRow(ctx, `
		SELECT id, doc_kind, doc_number, manual_number, party_type, party_id,
		       party_name, party_address, party_phone, party_email, party_tax_id,
		       issue_date::text, subtotal, tax, total, status, notes, created_at, updated_at
		FROM sales_documents
		WHERE doc_kind = $1 AND id = $2
	`, kind, id).Scan(
		&d.ID, &d.Kind, &d.Number, &d.ManualNumber, &d.PartyType, &d.PartyID,
		&d.Party.Name, &d.Party.Address, &d.Party.Phone, &d.Party.Email, &d.Party.TaxID,
		&d.IssueDate, &d.Subtotal, &d.Tax, &d.Total, &d.Status, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: string(kind), Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", kind, id, err)
	}

	lines, err := s.fetchLines(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Lines = lines
	return &d, nil
}

func (s *salesDocService) fetchLines(ctx context.Context, docID string) ([]LineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT line_number, catalog_item_id, name, unit, quantity, rate, tax_type, tax_percent, tax
		FROM sales_document_lines
		WHERE document_id = $1
		ORDER BY line_number
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query document lines: %w", err)
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(&l.LineNumber, &l.CatalogItemID, &l.Name, &l.Unit,
			&l.Quantity, &l.Rate, &l.TaxType, &l.TaxPercent, &l.Tax); err != nil {
			return nil, fmt.Errorf("failed to scan document line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *salesDocService) List(ctx context.Context, kind DocKind, status string) ([]SalesDocument, error) {
	if !kind.Valid() {
		return nil, NewValidationError("doc_kind", fmt.Sprintf("unknown document kind %q", kind))
	}

	query := `
		SELECT id, doc_kind, doc_number, manual_number, party_type, party_id,
		       party_name, party_address, party_phone, party_email, party_tax_id,
		       issue_date::text, subtotal, tax, total, status, notes, created_at, updated_at
		FROM sales_documents
		WHERE doc_kind = $1
	`
	args := []any{kind}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s list: %w", kind, err)
	}
	defer rows.Close()

	var docs []SalesDocument
	for rows.Next() {
		var d SalesDocument
		if err := rows.Scan(
			&d.ID, &d.Kind, &d.Number, &d.ManualNumber, &d.PartyType, &d.PartyID,
			&d.Party.Name, &d.Party.Address, &d.Party.Phone, &d.Party.Email, &d.Party.TaxID,
			&d.IssueDate, &d.Subtotal, &d.Tax, &d.Total, &d.Status, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *salesDocService) Update(ctx context.Context, kind DocKind, id string, req UpdateDocumentRequest) (*SalesDocument, error) {
	if req.Status != nil && !kind.ValidStatus(*req.Status) {
		return nil, NewValidationError("status", fmt.Sprintf("%q is not a valid %s status", *req.Status, kind))
	}
	if req.IssueDate != nil {
		if _, err := time.Parse("2006-01-02", *req.IssueDate); err != nil {
			return nil, NewValidationError("issue_date", "must be YYYY-MM-DD")
		}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE sales_documents
		SET status        = COALESCE($1, status),
		    notes         = COALESCE($2, notes),
		    manual_number = COALESCE($3, manual_number),
		    issue_date    = COALESCE($4::date, issue_date),
		    updated_at    = NOW()
		WHERE doc_kind = $5 AND id = $6
	`, req.Status, req.Notes, req.ManualNumber, req.IssueDate, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &NotFoundError{Entity: string(kind), Ref: id}
	}
	return s.Get(ctx, kind, id)
}
