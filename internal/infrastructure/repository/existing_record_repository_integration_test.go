package repository_test

import (
	"context"
	"testing"

	record "github.com/fieldops/importer/internal/domain/record"
	"github.com/fieldops/importer/internal/infrastructure/repository"
)

func TestExistingRecordRepositoryListIntegration(t *testing.T) {
	pool := openTestPool(t, customersSQL)
	db := openTestDB(t)
	repo := repository.NewExistingRecordRepository(db)
	ctx := context.Background()

	companyID := "af3a9e20-1f7b-4c6d-8e9f-0a1b2c3d4e5f"
	_, err := pool.Exec(ctx,
		`INSERT INTO customers (company_id, display_name, email, city, zip)
		 VALUES ($1, 'Acme Plumbing', 'info@acme.com', 'Austin', '78701'),
		        ($1, 'Jane Doe', NULL, NULL, NULL)`,
		companyID)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	records, err := repo.ListByCompany(ctx, record.EntityCustomer, companyID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("listed %d records, want 2", len(records))
	}

	var acme *record.CanonicalRecord
	for i := range records {
		if records[i].Fields["display_name"] == "Acme Plumbing" {
			acme = &records[i]
		}
	}
	if acme == nil {
		t.Fatalf("Acme Plumbing not listed: %#v", records)
	}
	if acme.Fields["email"] != "info@acme.com" {
		t.Fatalf("unexpected email: %#v", acme.Fields)
	}
	if acme.Fields["company_id"] != companyID {
		t.Fatalf("company stamp missing: %#v", acme.Fields)
	}

	// NULL columns must not surface as present fields.
	for _, rec := range records {
		if rec.Fields["display_name"] == "Jane Doe" {
			if _, ok := rec.Fields["email"]; ok {
				t.Fatalf("NULL email surfaced as field: %#v", rec.Fields)
			}
		}
	}
}
