package importing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	record "github.com/fieldops/importer/internal/domain/record"
)

// Config carries the orchestrator knobs. Zero values fall back to the
// product defaults.
type Config struct {
	BatchSize         int
	ApprovalThreshold int
	DedupThreshold    float64
	Weights           record.SimilarityWeights
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.ApprovalThreshold <= 0 {
		c.ApprovalThreshold = 100
	}
	if c.DedupThreshold <= 0 {
		c.DedupThreshold = 0.85
	}
	if c.Weights == (record.SimilarityWeights{}) {
		c.Weights = record.DefaultWeights()
	}
	return c
}

type RunImportInput struct {
	CompanyID     string
	UserID        string
	DataType      string
	FileName      string
	DryRun        bool
	CheckExisting bool
	Rows          []map[string]any
	SourcePath    string
}

type RowErrorOutput struct {
	Row      int      `json:"row"`
	Messages []string `json:"messages"`
}

type DuplicateSummary struct {
	Key             string   `json:"key"`
	Rows            []int    `json:"rows"`
	ExistingMatches int      `json:"existing_matches"`
	Similarity      float64  `json:"similarity"`
	MatchingFields  []string `json:"matching_fields"`
	Recommendation  string   `json:"recommendation"`
}

type RunImportOutput struct {
	JobID            string             `json:"job_id"`
	TotalRows        int                `json:"total_rows"`
	ValidRows        int                `json:"valid_rows"`
	ErrorRows        int                `json:"error_rows"`
	RequiresApproval bool               `json:"requires_approval"`
	DryRun           bool               `json:"dry_run"`
	ValidationErrors []RowErrorOutput   `json:"validation_errors"`
	HeadersFound     []string           `json:"headers_found"`
	Duplicates       []DuplicateSummary `json:"duplicates,omitempty"`
	Message          string             `json:"message"`
}

type RunImport interface {
	Execute(ctx context.Context, in RunImportInput) (RunImportOutput, error)
}

type jobCreator interface {
	Create(ctx context.Context, job *record.ImportJob) error
	MarkProcessing(ctx context.Context, jobID string) error
	Finalize(ctx context.Context, jobID, status string, processedRows int, insertErrors []record.InsertError) error
}

type batchInserter interface {
	InsertBatch(ctx context.Context, entity record.EntityType, records []record.CanonicalRecord) (int64, error)
}

type rowStager interface {
	Stage(ctx context.Context, jobID string, records []record.CanonicalRecord) error
}

type existingLister interface {
	ListByCompany(ctx context.Context, entity record.EntityType, companyID string) ([]record.CanonicalRecord, error)
}

// RowSource turns a server-side file into an ordered sequence of
// header-keyed rows. Headers come back already normalized.
type RowSource interface {
	ReadRows(ctx context.Context, sourcePath string) ([]string, []map[string]string, error)
}

type runImport struct {
	jobs     jobCreator
	inserter batchInserter
	stager   rowStager
	existing existingLister
	source   RowSource
	cfg      Config
}

func NewRunImport(jobs jobCreator, inserter batchInserter, stager rowStager, existing existingLister, source RowSource, cfg Config) RunImport {
	return &runImport{
		jobs:     jobs,
		inserter: inserter,
		stager:   stager,
		existing: existing,
		source:   source,
		cfg:      cfg.withDefaults(),
	}
}

func (uc *runImport) Execute(ctx context.Context, in RunImportInput) (RunImportOutput, error) {
	entity, err := record.ParseEntityType(in.DataType)
	if err != nil {
		return RunImportOutput{}, err
	}

	headers, rows, err := uc.resolveRows(ctx, in)
	if err != nil {
		return RunImportOutput{}, err
	}
	if len(rows) == 0 {
		return RunImportOutput{}, ErrEmptyImport
	}

	valid := make([]record.CanonicalRecord, 0, len(rows))
	validRawIndex := make([]int, 0, len(rows))
	var rowErrors []record.RowError
	for i, raw := range rows {
		mapped := record.MapAndValidate(raw, entity, in.CompanyID)
		if !mapped.Valid {
			rowErrors = append(rowErrors, record.RowError{Row: record.SheetRow(i), Messages: mapped.Errors})
			continue
		}
		valid = append(valid, mapped.Record)
		validRawIndex = append(validRawIndex, i)
	}

	duplicates := uc.detectDuplicates(ctx, in, entity, valid, validRawIndex)

	job := &record.ImportJob{
		CompanyID:        in.CompanyID,
		UserID:           in.UserID,
		DataType:         entity,
		FileName:         in.FileName,
		TotalRows:        len(rows),
		ValidRows:        len(valid),
		ErrorRows:        len(rowErrors),
		DryRun:           in.DryRun,
		ValidationErrors: capRowErrors(rowErrors, record.MaxStoredRowErrors),
		HeadersFound:     headers,
	}
	switch {
	case in.DryRun:
		job.Status = record.StatusDryRun
	case len(rows) > uc.cfg.ApprovalThreshold:
		job.Status = record.StatusPending
		job.RequiresApproval = true
	default:
		job.Status = record.StatusProcessing
	}

	if err := uc.jobs.Create(ctx, job); err != nil {
		return RunImportOutput{}, fmt.Errorf("%w: %v", ErrPersistJob, err)
	}

	out := RunImportOutput{
		JobID:            job.ID,
		TotalRows:        job.TotalRows,
		ValidRows:        job.ValidRows,
		ErrorRows:        job.ErrorRows,
		RequiresApproval: job.RequiresApproval,
		DryRun:           job.DryRun,
		ValidationErrors: reportRowErrors(rowErrors),
		HeadersFound:     headers,
		Duplicates:       duplicates,
	}

	switch job.Status {
	case record.StatusDryRun:
		out.Message = fmt.Sprintf("Dry run complete: %d of %d rows valid, no records imported", job.ValidRows, job.TotalRows)
		return out, nil
	case record.StatusPending:
		if err := uc.stager.Stage(ctx, job.ID, valid); err != nil {
			uc.abandonJob(ctx, job.ID)
			return RunImportOutput{}, fmt.Errorf("%w: %v", ErrStageRows, err)
		}
		out.Message = fmt.Sprintf("Import of %d rows is awaiting approval; no records imported yet", job.TotalRows)
		return out, nil
	}

	processed, insertErrors := commitBatches(ctx, uc.inserter, entity, valid, uc.cfg.BatchSize)
	status := record.StatusCompleted
	if len(insertErrors) > 0 {
		status = record.StatusCompletedWithErrors
	}
	if err := uc.jobs.Finalize(ctx, job.ID, status, processed, capInsertErrors(insertErrors, record.MaxStoredInsertErrors)); err != nil {
		return RunImportOutput{}, fmt.Errorf("%w: %v", ErrFinalizeJob, err)
	}

	out.Message = commitMessage(processed, job.TotalRows, job.ErrorRows, len(insertErrors))
	return out, nil
}

// abandonJob closes out a pending job whose rows never reached the staging
// table, so a later approval cannot replay an empty import as a success.
func (uc *runImport) abandonJob(ctx context.Context, jobID string) {
	if err := uc.jobs.MarkProcessing(ctx, jobID); err != nil {
		log.Printf("abandon import job %s: %v", jobID, err)
		return
	}
	if err := uc.jobs.Finalize(ctx, jobID, record.StatusCompletedWithErrors, 0, nil); err != nil {
		log.Printf("abandon import job %s: %v", jobID, err)
	}
}

// resolveRows returns the normalized headers and rows, reading from the row
// source when the request carries a source path instead of inline rows.
func (uc *runImport) resolveRows(ctx context.Context, in RunImportInput) ([]string, []map[string]string, error) {
	if len(in.Rows) == 0 && strings.TrimSpace(in.SourcePath) != "" && uc.source != nil {
		headers, rows, err := uc.source.ReadRows(ctx, in.SourcePath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrReadSource, err)
		}
		return headers, rows, nil
	}

	rows := make([]map[string]string, 0, len(in.Rows))
	for _, raw := range in.Rows {
		rows = append(rows, coerceRow(raw))
	}
	return unionKeys(rows), rows, nil
}

// detectDuplicates is advisory only: failures to consult the store are
// logged, never surfaced.
func (uc *runImport) detectDuplicates(ctx context.Context, in RunImportInput, entity record.EntityType, valid []record.CanonicalRecord, validRawIndex []int) []DuplicateSummary {
	if len(valid) == 0 {
		return nil
	}

	candidates := valid
	existingCount := 0
	if in.CheckExisting && uc.existing != nil {
		stored, err := uc.existing.ListByCompany(ctx, entity, in.CompanyID)
		if err != nil {
			log.Printf("list existing %s records for dedup: %v", entity, err)
		} else {
			candidates = append(append(make([]record.CanonicalRecord, 0, len(stored)+len(valid)), stored...), valid...)
			existingCount = len(stored)
		}
	}

	groups := record.DetectDuplicates(candidates, uc.cfg.Weights, uc.cfg.DedupThreshold)

	summaries := make([]DuplicateSummary, 0, len(groups))
	for _, g := range groups {
		var sheetRows []int
		existingMatches := 0
		for _, idx := range g.RecordIndices {
			if idx < existingCount {
				existingMatches++
				continue
			}
			sheetRows = append(sheetRows, record.SheetRow(validRawIndex[idx-existingCount]))
		}
		if len(sheetRows) == 0 {
			// Group made entirely of already-stored records.
			continue
		}
		fields := make([]string, 0, len(g.MatchingFields))
		for _, f := range g.MatchingFields {
			fields = append(fields, string(f))
		}
		summaries = append(summaries, DuplicateSummary{
			Key:             g.Key,
			Rows:            sheetRows,
			ExistingMatches: existingMatches,
			Similarity:      g.Similarity,
			MatchingFields:  fields,
			Recommendation:  string(g.Recommendation),
		})
	}
	return summaries
}

func commitMessage(processed, total, errorRows, failedBatches int) string {
	if failedBatches > 0 {
		return fmt.Sprintf("Imported %d of %d rows; %d insert batch(es) failed", processed, total, failedBatches)
	}
	if errorRows > 0 {
		return fmt.Sprintf("Imported %d of %d rows (%d rows failed validation)", processed, total, errorRows)
	}
	return fmt.Sprintf("Imported %d of %d rows", processed, total)
}

func coerceRow(raw map[string]any) map[string]string {
	row := make(map[string]string, len(raw))
	for key, value := range raw {
		row[record.NormalizeHeader(key)] = coerceValue(value)
	}
	return row
}

func coerceValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// unionKeys collects every column seen across the inline rows: sparse
// submissions where later rows carry columns the first row lacks still
// report the full header set.
func unionKeys(rows []map[string]string) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func capRowErrors(errs []record.RowError, limit int) []record.RowError {
	if len(errs) > limit {
		errs = errs[:limit]
	}
	return errs
}

func capInsertErrors(errs []record.InsertError, limit int) []record.InsertError {
	if len(errs) > limit {
		errs = errs[:limit]
	}
	return errs
}

func reportRowErrors(errs []record.RowError) []RowErrorOutput {
	out := make([]RowErrorOutput, 0, record.MaxReportedRowErrors)
	for _, e := range errs {
		if len(out) == record.MaxReportedRowErrors {
			break
		}
		out = append(out, RowErrorOutput{Row: e.Row, Messages: e.Messages})
	}
	return out
}
