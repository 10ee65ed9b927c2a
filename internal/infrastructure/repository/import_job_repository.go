package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	record "github.com/fieldops/importer/internal/domain/record"
	"github.com/fieldops/importer/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *record.ImportJob) error {
	validationErrors, err := marshalRowErrors(job.ValidationErrors)
	if err != nil {
		return fmt.Errorf("encode validation errors: %w", err)
	}
	headers, err := json.Marshal(headersOrEmpty(job.HeadersFound))
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}

	row := models.ImportJob{
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
		ValidationErrors: string(validationErrors),
		HeadersFound:     string(headers),
		InsertErrors:     "[]",
	}
	if job.Status == record.StatusProcessing {
		now := time.Now()
		row.StartedAt = &now
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create import job: %w", err)
	}

	job.ID = row.ID
	return nil
}

func (r *ImportJobRepository) GetByID(ctx context.Context, jobID string) (*record.ImportJob, error) {
	var row models.ImportJob

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, record.ErrJobNotFound
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}

	return toDomainJob(row)
}

// MarkProcessing transitions a pending job to processing. The guard makes
// concurrent approvals race safely: only one caller sees the transition.
func (r *ImportJobRepository) MarkProcessing(ctx context.Context, jobID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", jobID, record.StatusPending).
		Updates(map[string]any{
			"status":     record.StatusProcessing,
			"started_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("mark import job processing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return record.ErrJobNotPending
	}
	return nil
}

// Finalize writes the terminal status and commit statistics exactly once:
// only a processing job matches, so a finished job is never re-opened.
func (r *ImportJobRepository) Finalize(ctx context.Context, jobID, status string, processedRows int, insertErrors []record.InsertError) error {
	payload, err := marshalInsertErrors(insertErrors)
	if err != nil {
		return fmt.Errorf("encode insert errors: %w", err)
	}

	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", jobID, record.StatusProcessing).
		Updates(map[string]any{
			"status":         status,
			"processed_rows": processedRows,
			"insert_errors":  string(payload),
			"finished_at":    time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("finalize import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finalize import job %s: no processing job matched", jobID)
	}
	return nil
}

type rowErrorPayload struct {
	Row      int      `json:"row"`
	Messages []string `json:"messages"`
}

type insertErrorPayload struct {
	Batch   int    `json:"batch"`
	Message string `json:"message"`
}

func marshalRowErrors(errs []record.RowError) ([]byte, error) {
	payload := make([]rowErrorPayload, 0, len(errs))
	for _, e := range errs {
		payload = append(payload, rowErrorPayload{Row: e.Row, Messages: e.Messages})
	}
	return json.Marshal(payload)
}

func marshalInsertErrors(errs []record.InsertError) ([]byte, error) {
	payload := make([]insertErrorPayload, 0, len(errs))
	for _, e := range errs {
		payload = append(payload, insertErrorPayload{Batch: e.Batch, Message: e.Message})
	}
	return json.Marshal(payload)
}

func headersOrEmpty(headers []string) []string {
	if headers == nil {
		return []string{}
	}
	return headers
}

func toDomainJob(row models.ImportJob) (*record.ImportJob, error) {
	var rowErrors []rowErrorPayload
	if err := json.Unmarshal([]byte(row.ValidationErrors), &rowErrors); err != nil {
		return nil, fmt.Errorf("decode validation errors: %w", err)
	}
	var insertErrors []insertErrorPayload
	if err := json.Unmarshal([]byte(row.InsertErrors), &insertErrors); err != nil {
		return nil, fmt.Errorf("decode insert errors: %w", err)
	}
	var headers []string
	if err := json.Unmarshal([]byte(row.HeadersFound), &headers); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}

	job := &record.ImportJob{
		ID:               row.ID,
		CompanyID:        row.CompanyID,
		UserID:           row.UserID,
		DataType:         record.EntityType(row.DataType),
		Status:           row.Status,
		FileName:         row.FileName,
		TotalRows:        row.TotalRows,
		ValidRows:        row.ValidRows,
		ErrorRows:        row.ErrorRows,
		DryRun:           row.DryRun,
		RequiresApproval: row.RequiresApproval,
		HeadersFound:     headers,
		ProcessedRows:    row.ProcessedRows,
	}
	for _, e := range rowErrors {
		job.ValidationErrors = append(job.ValidationErrors, record.RowError{Row: e.Row, Messages: e.Messages})
	}
	for _, e := range insertErrors {
		job.InsertErrors = append(job.InsertErrors, record.InsertError{Batch: e.Batch, Message: e.Message})
	}
	return job, nil
}
