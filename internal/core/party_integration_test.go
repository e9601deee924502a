package core_test

import (
	"context"
	"errors"
	"testing"

	"pharma-erp/internal/core"

	"github.com/rs/zerolog"
)

func TestParties_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPartyService(pool)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Party{
		Type:  core.PartyCustomer,
		Name:  "Nanded Pharma Agencies",
		Phone: "9811122233",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	customers, err := svc.List(ctx, core.PartyCustomer)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(customers) != 2 { // seed customer plus the new one
		t.Errorf("customer list = %d, want 2", len(customers))
	}
	suppliers, err := svc.List(ctx, core.PartySupplier)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(suppliers) != 1 {
		t.Errorf("supplier list = %d, want 1", len(suppliers))
	}

	created.Address = "3 Station Road, Nanded"
	updated, err := svc.Update(ctx, *created)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Address != "3 Station Road, Nanded" {
		t.Errorf("address = %q", updated.Address)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var notFound *core.NotFoundError
	if _, err := svc.Get(ctx, created.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}

	if _, err := svc.Create(ctx, core.Party{Type: "vendor", Name: "X"}); err == nil {
		t.Error("expected validation error for unknown party type")
	}
}

func TestParties_DeleteKeepsDocumentSnapshots(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	parties := core.NewPartyService(pool)
	docs := core.NewSalesDocService(pool, parties, zerolog.Nop())
	ctx := context.Background()

	doc, err := docs.Create(ctx, core.DocInvoice, core.CreateDocumentRequest{
		PartyType: core.PartyCustomer,
		PartyID:   "cust-1",
		Lines: []core.LineItemInput{
			{CatalogItemID: "item-ibuprofen", Quantity: "2", Rate: "900"},
		},
	})
	if err != nil {
		t.Fatalf("Create document failed: %v", err)
	}

	if err := parties.Delete(ctx, "cust-1"); err != nil {
		t.Fatalf("Delete party failed: %v", err)
	}

	// The document keeps its captured party fields after the master record
	// is gone.
	got, err := docs.Get(ctx, core.DocInvoice, doc.ID)
	if err != nil {
		t.Fatalf("Get document failed: %v", err)
	}
	if got.Party.Name != "Sharma Medical Stores" {
		t.Errorf("snapshot name after party delete = %q", got.Party.Name)
	}
}
