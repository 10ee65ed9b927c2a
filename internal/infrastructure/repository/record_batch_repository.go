package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	record "github.com/fieldops/importer/internal/domain/record"
)

// entityTables maps each entity type to its target table and the canonical
// fields that become columns there. company_id is always populated from the
// record's tenant stamp; everything else inserts as NULL when absent.
var entityTables = map[record.EntityType]struct {
	name    string
	columns []string
}{
	record.EntityCustomer: {"customers", []string{
		"company_id", "display_name", "first_name", "last_name", "company_name",
		"email", "phone", "address", "city", "state", "zip", "notes",
	}},
	record.EntityJob: {"jobs", []string{
		"company_id", "title", "description", "customer_name",
		"address", "city", "state", "zip", "status", "scheduled_date", "notes",
	}},
	record.EntityMaterial: {"materials", []string{
		"company_id", "name", "sku", "description", "unit", "unit_cost",
		"quantity", "category", "vendor_name",
	}},
	record.EntityVendor: {"vendors", []string{
		"company_id", "name", "display_name", "contact_name", "email", "phone",
		"address", "city", "state", "zip", "website", "account_number", "notes",
	}},
}

type RecordBatchRepository struct {
	pool *pgxpool.Pool
}

func NewRecordBatchRepository(pool *pgxpool.Pool) *RecordBatchRepository {
	return &RecordBatchRepository{pool: pool}
}

// InsertBatch copies one batch into the entity's target table and returns
// the row count the datastore reports. The copy is atomic per batch, which
// is exactly the isolation the orchestrator's partial-failure policy needs.
func (r *RecordBatchRepository) InsertBatch(ctx context.Context, entity record.EntityType, records []record.CanonicalRecord) (int64, error) {
	table, ok := entityTables[entity]
	if !ok {
		return 0, fmt.Errorf("%w: %s", record.ErrUnknownDataType, entity)
	}
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		values := make([]any, 0, len(table.columns))
		for _, column := range table.columns {
			if column == "company_id" {
				values = append(values, rec.Fields["company_id"])
				continue
			}
			values = append(values, nullableText(rec.Fields[column]))
		}
		rows = append(rows, values)
	}

	copied, err := r.pool.CopyFrom(ctx, pgx.Identifier{table.name}, table.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy %s batch: %w", table.name, err)
	}
	return copied, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
