package importing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	record "github.com/fieldops/importer/internal/domain/record"
)

type ApproveImportInput struct {
	JobID string
}

type InsertErrorOutput struct {
	Batch   int    `json:"batch"`
	Message string `json:"message"`
}

type ApproveImportOutput struct {
	JobID         string              `json:"job_id"`
	Status        string              `json:"status"`
	ProcessedRows int                 `json:"processed_rows"`
	InsertErrors  []InsertErrorOutput `json:"insert_errors,omitempty"`
	Message       string              `json:"message"`
}

type ApproveImport interface {
	Execute(ctx context.Context, in ApproveImportInput) (ApproveImportOutput, error)
}

type approvalJobRepo interface {
	GetByID(ctx context.Context, jobID string) (*record.ImportJob, error)
	MarkProcessing(ctx context.Context, jobID string) error
	Finalize(ctx context.Context, jobID, status string, processedRows int, insertErrors []record.InsertError) error
}

type stagedRows interface {
	Load(ctx context.Context, jobID string) ([]record.CanonicalRecord, error)
	Delete(ctx context.Context, jobID string) error
}

type approveImport struct {
	jobs     approvalJobRepo
	staged   stagedRows
	inserter batchInserter
	cfg      Config
}

func NewApproveImport(jobs approvalJobRepo, staged stagedRows, inserter batchInserter, cfg Config) ApproveImport {
	return &approveImport{
		jobs:     jobs,
		staged:   staged,
		inserter: inserter,
		cfg:      cfg.withDefaults(),
	}
}

func (uc *approveImport) Execute(ctx context.Context, in ApproveImportInput) (ApproveImportOutput, error) {
	if _, err := uuid.Parse(in.JobID); err != nil {
		return ApproveImportOutput{}, ErrInvalidJobID
	}

	job, err := uc.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, record.ErrJobNotFound) {
			return ApproveImportOutput{}, ErrJobNotFound
		}
		return ApproveImportOutput{}, fmt.Errorf("%w: %v", ErrApproveImport, err)
	}
	if job.Status != record.StatusPending {
		return ApproveImportOutput{}, ErrJobNotPending
	}

	rows, err := uc.staged.Load(ctx, job.ID)
	if err != nil {
		return ApproveImportOutput{}, fmt.Errorf("%w: %v", ErrLoadStagedRows, err)
	}

	if err := uc.jobs.MarkProcessing(ctx, job.ID); err != nil {
		if errors.Is(err, record.ErrJobNotPending) {
			// Another approval won the transition.
			return ApproveImportOutput{}, ErrJobNotPending
		}
		return ApproveImportOutput{}, fmt.Errorf("%w: %v", ErrApproveImport, err)
	}

	processed, insertErrors := commitBatches(ctx, uc.inserter, job.DataType, rows, uc.cfg.BatchSize)
	status := record.StatusCompleted
	if len(insertErrors) > 0 {
		status = record.StatusCompletedWithErrors
	}
	if err := uc.jobs.Finalize(ctx, job.ID, status, processed, capInsertErrors(insertErrors, record.MaxStoredInsertErrors)); err != nil {
		return ApproveImportOutput{}, fmt.Errorf("%w: %v", ErrFinalizeJob, err)
	}

	if err := uc.staged.Delete(ctx, job.ID); err != nil {
		log.Printf("cleanup staged rows for job %s: %v", job.ID, err)
	}

	out := ApproveImportOutput{
		JobID:         job.ID,
		Status:        status,
		ProcessedRows: processed,
		Message:       commitMessage(processed, job.TotalRows, job.ErrorRows, len(insertErrors)),
	}
	for _, e := range insertErrors {
		out.InsertErrors = append(out.InsertErrors, InsertErrorOutput{Batch: e.Batch, Message: e.Message})
	}
	return out, nil
}
