package importing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	app "github.com/fieldops/importer/internal/application/importing"
	record "github.com/fieldops/importer/internal/domain/record"
)

const (
	testCompanyID = "0cbd3c37-41cd-4a6f-93a1-5b2d6b1f6a10"
	testUserID    = "7f1a61d2-bd6a-40c0-9725-cf62ef5dfd90"
)

type fakeJobRepo struct {
	created        *record.ImportJob
	createErr      error
	markCalls      int
	finalizeStatus string
	finalizeRows   int
	finalizeErrors []record.InsertError
	finalizeCalls  int
}

func (f *fakeJobRepo) Create(ctx context.Context, job *record.ImportJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	job.ID = "5b0c2a58-3f68-4f57-a3bd-c4de6de53f11"
	copied := *job
	f.created = &copied
	return nil
}

func (f *fakeJobRepo) MarkProcessing(ctx context.Context, jobID string) error {
	f.markCalls++
	return nil
}

func (f *fakeJobRepo) Finalize(ctx context.Context, jobID, status string, processedRows int, insertErrors []record.InsertError) error {
	f.finalizeCalls++
	f.finalizeStatus = status
	f.finalizeRows = processedRows
	f.finalizeErrors = insertErrors
	return nil
}

type fakeInserter struct {
	calls     int
	batchRows []int
	failCalls map[int]error
	reported  int64
}

func (f *fakeInserter) InsertBatch(ctx context.Context, entity record.EntityType, records []record.CanonicalRecord) (int64, error) {
	f.calls++
	f.batchRows = append(f.batchRows, len(records))
	if err := f.failCalls[f.calls]; err != nil {
		return 0, err
	}
	if f.reported != 0 {
		return f.reported, nil
	}
	return int64(len(records)), nil
}

type fakeStager struct {
	jobID string
	rows  int
	calls int
	err   error
}

func (f *fakeStager) Stage(ctx context.Context, jobID string, records []record.CanonicalRecord) error {
	f.calls++
	f.jobID = jobID
	f.rows = len(records)
	return f.err
}

type fakeLister struct {
	records []record.CanonicalRecord
	err     error
}

func (f *fakeLister) ListByCompany(ctx context.Context, entity record.EntityType, companyID string) ([]record.CanonicalRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeRowSource struct {
	headers []string
	rows    []map[string]string
	err     error
	path    string
}

func (f *fakeRowSource) ReadRows(ctx context.Context, sourcePath string) ([]string, []map[string]string, error) {
	f.path = sourcePath
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.headers, f.rows, nil
}

func customerRows(n int) []map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"display_name": fmt.Sprintf("Customer %04d", i),
			"email":        fmt.Sprintf("customer%04d@example.test", i),
		})
	}
	return rows
}

func newUseCase(jobs *fakeJobRepo, inserter *fakeInserter, stager *fakeStager, lister *fakeLister, source app.RowSource) app.RunImport {
	return app.NewRunImport(jobs, inserter, stager, lister, source, app.Config{})
}

func TestRunImportDryRunCommitsNothing(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	inserter := &fakeInserter{}
	stager := &fakeStager{}
	uc := newUseCase(jobs, inserter, stager, &fakeLister{}, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		UserID:    testUserID,
		DataType:  "customer",
		FileName:  "customers.csv",
		DryRun:    true,
		Rows:      customerRows(5),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if inserter.calls != 0 {
		t.Fatalf("dry run must not insert, got %d calls", inserter.calls)
	}
	if stager.calls != 0 {
		t.Fatalf("dry run must not stage rows, got %d calls", stager.calls)
	}
	if jobs.finalizeCalls != 0 {
		t.Fatalf("dry run must not finalize, got %d calls", jobs.finalizeCalls)
	}
	if jobs.created == nil || jobs.created.Status != record.StatusDryRun {
		t.Fatalf("expected persisted dry_run job, got %+v", jobs.created)
	}
	if !out.DryRun || out.TotalRows != 5 || out.ValidRows != 5 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRunImportApprovalGate(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	inserter := &fakeInserter{}
	stager := &fakeStager{}
	uc := newUseCase(jobs, inserter, stager, &fakeLister{}, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		UserID:    testUserID,
		DataType:  "customer",
		Rows:      customerRows(101),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if jobs.created.Status != record.StatusPending {
		t.Fatalf("expected pending status, got %s", jobs.created.Status)
	}
	if !out.RequiresApproval {
		t.Fatal("expected requires_approval")
	}
	if inserter.calls != 0 {
		t.Fatalf("pending job must not insert, got %d calls", inserter.calls)
	}
	if stager.calls != 1 || stager.rows != 101 {
		t.Fatalf("expected 101 staged rows, got %d calls / %d rows", stager.calls, stager.rows)
	}
}

func TestRunImportStageFailureClosesJob(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	inserter := &fakeInserter{}
	stager := &fakeStager{err: errors.New("disk full")}
	uc := newUseCase(jobs, inserter, stager, &fakeLister{}, nil)

	_, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		UserID:    testUserID,
		DataType:  "customer",
		Rows:      customerRows(101),
	})
	if !errors.Is(err, app.ErrStageRows) {
		t.Fatalf("expected ErrStageRows, got %v", err)
	}

	// The job must not stay pending: an approval would otherwise replay an
	// empty staging table as a successful import.
	if jobs.markCalls != 1 {
		t.Fatalf("expected job to leave pending, got %d transitions", jobs.markCalls)
	}
	if jobs.finalizeCalls != 1 || jobs.finalizeStatus != record.StatusCompletedWithErrors {
		t.Fatalf("unexpected finalize: %d calls / %s", jobs.finalizeCalls, jobs.finalizeStatus)
	}
	if jobs.finalizeRows != 0 {
		t.Fatalf("expected 0 processed rows, got %d", jobs.finalizeRows)
	}
	if inserter.calls != 0 {
		t.Fatalf("stage failure must not insert, got %d calls", inserter.calls)
	}
}

func TestRunImportAtApprovalThresholdProceeds(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	inserter := &fakeInserter{}
	uc := newUseCase(jobs, inserter, &fakeStager{}, &fakeLister{}, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		UserID:    testUserID,
		DataType:  "customer",
		Rows:      customerRows(100),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if jobs.created.Status != record.StatusProcessing {
		t.Fatalf("expected processing status, got %s", jobs.created.Status)
	}
	if out.RequiresApproval {
		t.Fatal("did not expect approval gate at exactly 100 rows")
	}
	if inserter.calls != 1 {
		t.Fatalf("expected 1 batch, got %d", inserter.calls)
	}
	if jobs.finalizeStatus != record.StatusCompleted || jobs.finalizeRows != 100 {
		t.Fatalf("unexpected finalize: %s / %d", jobs.finalizeStatus, jobs.finalizeRows)
	}
}

func TestRunImportBatchPartialFailure(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	inserter := &fakeInserter{failCalls: map[int]error{2: errors.New("deadlock detected")}}
	// Threshold raised past the row count so the commit path runs instead of
	// the approval gate.
	uc := app.NewRunImport(jobs, inserter, &fakeStager{}, &fakeLister{}, nil, app.Config{ApprovalThreshold: 250})

	_, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		UserID:    testUserID,
		DataType:  "customer",
		Rows:      customerRows(250),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if inserter.calls != 3 {
		t.Fatalf("expected 3 batches, got %d", inserter.calls)
	}
	if got := inserter.batchRows; got[0] != 100 || got[1] != 100 || got[2] != 50 {
		t.Fatalf("unexpected batch sizes: %v", got)
	}
	if jobs.finalizeRows != 150 {
		t.Fatalf("expected 150 processed rows, got %d", jobs.finalizeRows)
	}
	if len(jobs.finalizeErrors) != 1 || jobs.finalizeErrors[0].Batch != 2 {
		t.Fatalf("expected one insert error for batch 2, got %v", jobs.finalizeErrors)
	}
	if jobs.finalizeStatus != record.StatusCompletedWithErrors {
		t.Fatalf("expected completed_with_errors, got %s", jobs.finalizeStatus)
	}
}

func TestRunImportRowValidationErrors(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	inserter := &fakeInserter{}
	uc := newUseCase(jobs, inserter, &fakeStager{}, &fakeLister{}, nil)

	rows := []map[string]any{
		{"display_name": "Good Customer", "email": "good@example.test"},
		{"email": "nameless@example.test"},
	}

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		UserID:    testUserID,
		DataType:  "customer",
		Rows:      rows,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.ValidRows != 1 || out.ErrorRows != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if len(out.ValidationErrors) != 1 {
		t.Fatalf("expected 1 validation error, got %v", out.ValidationErrors)
	}
	ve := out.ValidationErrors[0]
	if ve.Row != 3 {
		t.Fatalf("expected sheet row 3 for second data row, got %d", ve.Row)
	}
	if len(ve.Messages) != 1 || ve.Messages[0] != "Customer name is required" {
		t.Fatalf("unexpected messages: %v", ve.Messages)
	}
	if got := inserter.batchRows; len(got) != 1 || got[0] != 1 {
		t.Fatalf("invalid row leaked into the insert set: %v", got)
	}
}

func TestRunImportUnknownDataType(t *testing.T) {
	t.Parallel()

	uc := newUseCase(&fakeJobRepo{}, &fakeInserter{}, &fakeStager{}, &fakeLister{}, nil)

	_, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		DataType:  "invoice",
		Rows:      customerRows(1),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, record.ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}
	if err.Error() != "Unknown data type: invoice" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestRunImportEmptyFile(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	uc := newUseCase(jobs, &fakeInserter{}, &fakeStager{}, &fakeLister{}, nil)

	_, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		DataType:  "customer",
	})
	if !errors.Is(err, app.ErrEmptyImport) {
		t.Fatalf("expected ErrEmptyImport, got %v", err)
	}
	if jobs.created != nil {
		t.Fatal("empty import must not create a job")
	}
}

func TestRunImportDuplicateAdvisoryAgainstStore(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{records: []record.CanonicalRecord{{
		Entity: record.EntityCustomer,
		Fields: map[string]string{
			"display_name": "Dana Reyes",
			"email":        "dana@example.test",
		},
	}}}
	uc := newUseCase(&fakeJobRepo{}, &fakeInserter{}, &fakeStager{}, lister, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID:     testCompanyID,
		DataType:      "customer",
		CheckExisting: true,
		Rows: []map[string]any{
			{"display_name": "Dana Reyes", "email": "dana@example.test"},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(out.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate group, got %v", out.Duplicates)
	}
	dup := out.Duplicates[0]
	if dup.ExistingMatches != 1 {
		t.Fatalf("expected 1 existing match, got %d", dup.ExistingMatches)
	}
	if len(dup.Rows) != 1 || dup.Rows[0] != 2 {
		t.Fatalf("expected sheet row 2, got %v", dup.Rows)
	}
}

func TestRunImportDuplicateAdvisoryListerFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{err: errors.New("db down")}
	jobs := &fakeJobRepo{}
	uc := newUseCase(jobs, &fakeInserter{}, &fakeStager{}, lister, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID:     testCompanyID,
		DataType:      "customer",
		CheckExisting: true,
		Rows:          customerRows(3),
	})
	if err != nil {
		t.Fatalf("dedup must stay advisory, got %v", err)
	}
	if jobs.finalizeStatus != record.StatusCompleted {
		t.Fatalf("expected completed, got %s", jobs.finalizeStatus)
	}
	if len(out.Duplicates) != 0 {
		t.Fatalf("unexpected duplicates: %v", out.Duplicates)
	}
}

func TestRunImportReadsRowSource(t *testing.T) {
	t.Parallel()

	source := &fakeRowSource{
		headers: []string{"display_name", "email"},
		rows: []map[string]string{
			{"display_name": "Dana Reyes", "email": "dana@example.test"},
		},
	}
	jobs := &fakeJobRepo{}
	uc := newUseCase(jobs, &fakeInserter{}, &fakeStager{}, &fakeLister{}, source)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID:  testCompanyID,
		DataType:   "customer",
		SourcePath: "uploads/customers.csv",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if source.path != "uploads/customers.csv" {
		t.Fatalf("unexpected source path: %s", source.path)
	}
	if out.TotalRows != 1 || len(out.HeadersFound) != 2 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRunImportInlineHeadersUnionAcrossRows(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobRepo{}
	uc := newUseCase(jobs, &fakeInserter{}, &fakeStager{}, &fakeLister{}, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		DataType:  "customer",
		Rows: []map[string]any{
			{"display_name": "Dana Reyes"},
			{"display_name": "Lee Park", "Email": "lee@example.test", "Phone": "555-0100"},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"display_name", "email", "phone"}
	if len(out.HeadersFound) != len(want) {
		t.Fatalf("headers = %v, want %v", out.HeadersFound, want)
	}
	for i, h := range want {
		if out.HeadersFound[i] != h {
			t.Fatalf("headers[%d] = %q, want %q", i, out.HeadersFound[i], h)
		}
	}
}

func TestRunImportCapsReportedValidationErrors(t *testing.T) {
	t.Parallel()

	rows := make([]map[string]any, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, map[string]any{"email": fmt.Sprintf("nameless%d@example.test", i)})
	}

	jobs := &fakeJobRepo{}
	uc := newUseCase(jobs, &fakeInserter{}, &fakeStager{}, &fakeLister{}, nil)

	out, err := uc.Execute(context.Background(), app.RunImportInput{
		CompanyID: testCompanyID,
		DataType:  "customer",
		Rows:      rows,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out.ValidationErrors) != record.MaxReportedRowErrors {
		t.Fatalf("expected %d reported errors, got %d", record.MaxReportedRowErrors, len(out.ValidationErrors))
	}
	if out.ErrorRows != 12 {
		t.Fatalf("expected 12 error rows, got %d", out.ErrorRows)
	}
}
