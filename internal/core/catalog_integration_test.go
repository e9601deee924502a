package core_test

import (
	"context"
	"errors"
	"testing"

	"pharma-erp/internal/core"

	"github.com/shopspring/decimal"
)

func TestCatalog_ReceiveStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewCatalogService(pool)
	ctx := context.Background()

	item, err := svc.ReceiveStock(ctx, "item-ibuprofen", decimal.NewFromInt(25), "2026-08-30", "GRN-1142 Qualichem Labs")
	if err != nil {
		t.Fatalf("ReceiveStock failed: %v", err)
	}
	if item.Quantity.Cmp(decimal.NewFromInt(75)) != 0 {
		t.Errorf("quantity = %s, want 75", item.Quantity)
	}
	if item.LastUpdated != "2026-08-30" {
		t.Errorf("last_updated = %q, want 2026-08-30", item.LastUpdated)
	}

	movements, err := svc.Movements(ctx, "item-ibuprofen")
	if err != nil {
		t.Fatalf("Movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	m := movements[0]
	if m.MovementType != core.MovementReceipt {
		t.Errorf("movement type = %q, want RECEIPT", m.MovementType)
	}
	if m.Quantity.Cmp(decimal.NewFromInt(25)) != 0 {
		t.Errorf("movement quantity = %s, want 25", m.Quantity)
	}
	if m.Notes != "GRN-1142 Qualichem Labs" {
		t.Errorf("movement notes = %q", m.Notes)
	}
}

func TestCatalog_ReceiveStockRejectsNonPositive(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewCatalogService(pool)
	ctx := context.Background()

	for _, qty := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := svc.ReceiveStock(ctx, "item-ibuprofen", qty, "", "")
		var validationErr *core.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("ReceiveStock(%s): expected ValidationError, got %v", qty, err)
		}
	}

	var notFound *core.NotFoundError
	if _, err := svc.ReceiveStock(ctx, "item-missing", decimal.NewFromInt(5), "", ""); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError for unknown item, got %v", err)
	}
}

func TestCatalog_UpdateDetailsLeavesQuantityAlone(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewCatalogService(pool)
	ctx := context.Background()

	item, err := svc.UpdateDetails(ctx, "item-paracetamol", "Paracetamol IP 500", "kg")
	if err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}
	if item.Name != "Paracetamol IP 500" {
		t.Errorf("name = %q", item.Name)
	}
	if item.Quantity.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Errorf("quantity = %s, want 200 (details edit must not touch stock)", item.Quantity)
	}
}

func TestCatalog_CreateStartsAtZero(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewCatalogService(pool)
	ctx := context.Background()

	item, err := svc.Create(ctx, "Amoxicillin Trihydrate", "kg")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !item.Quantity.IsZero() {
		t.Errorf("new item quantity = %s, want 0", item.Quantity)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("catalog size = %d, want 3", len(items))
	}
}
