package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	record "github.com/fieldops/importer/internal/domain/record"
)

// StagedRowRepository keeps the validated rows of an approval-gated job in
// import_rows until the job is approved or abandoned.
type StagedRowRepository struct {
	pool *pgxpool.Pool
}

func NewStagedRowRepository(pool *pgxpool.Pool) *StagedRowRepository {
	return &StagedRowRepository{pool: pool}
}

func (r *StagedRowRepository) Stage(ctx context.Context, jobID string, records []record.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encode staged row %d: %w", i, err)
		}
		rows = append(rows, []any{jobID, int64(i), string(rec.Entity), payload})
	}

	if _, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"import_rows"},
		[]string{"job_id", "row_index", "entity_type", "payload"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy staged rows: %w", err)
	}
	return nil
}

func (r *StagedRowRepository) Load(ctx context.Context, jobID string) ([]record.CanonicalRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT entity_type, payload FROM import_rows WHERE job_id = $1 ORDER BY row_index",
		jobID)
	if err != nil {
		return nil, fmt.Errorf("load staged rows: %w", err)
	}
	defer rows.Close()

	var records []record.CanonicalRecord
	for rows.Next() {
		var entity string
		var payload []byte
		if err := rows.Scan(&entity, &payload); err != nil {
			return nil, fmt.Errorf("scan staged row: %w", err)
		}
		fields := make(map[string]string)
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("decode staged row: %w", err)
		}
		records = append(records, record.CanonicalRecord{
			Entity: record.EntityType(entity),
			Fields: fields,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staged rows: %w", err)
	}
	return records, nil
}

func (r *StagedRowRepository) Delete(ctx context.Context, jobID string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM import_rows WHERE job_id = $1", jobID); err != nil {
		return fmt.Errorf("delete staged rows: %w", err)
	}
	return nil
}
