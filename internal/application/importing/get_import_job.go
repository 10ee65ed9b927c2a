package importing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	record "github.com/fieldops/importer/internal/domain/record"
)

type GetImportJobInput struct {
	ID string
}

type GetImportJobOutput struct {
	ID               string              `json:"id"`
	CompanyID        string              `json:"company_id"`
	UserID           string              `json:"user_id"`
	DataType         string              `json:"data_type"`
	Status           string              `json:"status"`
	FileName         string              `json:"file_name"`
	TotalRows        int                 `json:"total_rows"`
	ValidRows        int                 `json:"valid_rows"`
	ErrorRows        int                 `json:"error_rows"`
	DryRun           bool                `json:"dry_run"`
	RequiresApproval bool                `json:"requires_approval"`
	ValidationErrors []RowErrorOutput    `json:"validation_errors"`
	HeadersFound     []string            `json:"headers_found"`
	ProcessedRows    int                 `json:"processed_rows"`
	InsertErrors     []InsertErrorOutput `json:"insert_errors"`
}

type GetImportJob interface {
	Execute(ctx context.Context, in GetImportJobInput) (GetImportJobOutput, error)
}

type jobReader interface {
	GetByID(ctx context.Context, jobID string) (*record.ImportJob, error)
}

type getImportJob struct {
	jobs jobReader
}

func NewGetImportJob(jobs jobReader) GetImportJob {
	return &getImportJob{jobs: jobs}
}

func (uc *getImportJob) Execute(ctx context.Context, in GetImportJobInput) (GetImportJobOutput, error) {
	if _, err := uuid.Parse(in.ID); err != nil {
		return GetImportJobOutput{}, ErrInvalidJobID
	}

	job, err := uc.jobs.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, record.ErrJobNotFound) {
			return GetImportJobOutput{}, ErrJobNotFound
		}
		return GetImportJobOutput{}, fmt.Errorf("%w: %v", ErrGetImportJob, err)
	}

	out := GetImportJobOutput{
		ID:               job.ID,
		CompanyID:        job.CompanyID,
		UserID:           job.UserID,
		DataType:         string(job.DataType),
		Status:           job.Status,
		FileName:         job.FileName,
		TotalRows:        job.TotalRows,
		ValidRows:        job.ValidRows,
		ErrorRows:        job.ErrorRows,
		DryRun:           job.DryRun,
		RequiresApproval: job.RequiresApproval,
		HeadersFound:     job.HeadersFound,
		ProcessedRows:    job.ProcessedRows,
	}
	for _, e := range job.ValidationErrors {
		out.ValidationErrors = append(out.ValidationErrors, RowErrorOutput{Row: e.Row, Messages: e.Messages})
	}
	for _, e := range job.InsertErrors {
		out.InsertErrors = append(out.InsertErrors, InsertErrorOutput{Batch: e.Batch, Message: e.Message})
	}
	return out, nil
}
