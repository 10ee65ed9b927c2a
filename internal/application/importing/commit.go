package importing

import (
	"context"
	"strings"

	record "github.com/fieldops/importer/internal/domain/record"
)

// batchResult is the immutable outcome of one insert attempt. The commit is
// a fold over these rather than in-place mutation, so the sequential batch
// contract stays easy to audit.
type batchResult struct {
	batch    int
	rows     int
	inserted int64
	err      error
}

// commitBatches inserts valid records in fixed-size, order-preserving
// batches. Batches run strictly sequentially and fail independently: a
// rejected batch is recorded and the next one still commits. Batch numbers
// are 1-based.
func commitBatches(ctx context.Context, inserter batchInserter, entity record.EntityType, records []record.CanonicalRecord, batchSize int) (int, []record.InsertError) {
	results := make([]batchResult, 0, (len(records)+batchSize-1)/batchSize)
	for start, batch := 0, 1; start < len(records); start, batch = start+batchSize, batch+1 {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		inserted, err := inserter.InsertBatch(ctx, entity, chunk)
		results = append(results, batchResult{batch: batch, rows: len(chunk), inserted: inserted, err: err})
	}

	processed := 0
	var insertErrors []record.InsertError
	for _, res := range results {
		if res.err != nil {
			insertErrors = append(insertErrors, record.InsertError{Batch: res.batch, Message: truncateReason(res.err.Error())})
			continue
		}
		if res.inserted > 0 {
			processed += int(res.inserted)
		} else {
			// Datastore reported no count; trust the batch size.
			processed += res.rows
		}
	}
	return processed, insertErrors
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
