package record

// Import job lifecycle statuses. Transitions are monotonic: dry_run, pending
// and processing only ever move to completed or completed_with_errors, and a
// finished job is never re-opened.
const (
	StatusDryRun              = "dry_run"
	StatusPending             = "pending"
	StatusProcessing          = "processing"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// Bounds on stored and reported error samples.
const (
	MaxStoredRowErrors    = 100
	MaxStoredInsertErrors = 100
	MaxReportedRowErrors  = 10
)

// RowError carries the validation messages for one rejected row. Row uses
// the spreadsheet convention: data row 0 is sheet row 2.
type RowError struct {
	Row      int
	Messages []string
}

// InsertError records one failed commit batch. Batches are numbered from 1.
type InsertError struct {
	Batch   int
	Message string
}

// ImportJob is the persisted audit record of one upload.
type ImportJob struct {
	ID               string
	CompanyID        string
	UserID           string
	DataType         EntityType
	Status           string
	FileName         string
	TotalRows        int
	ValidRows        int
	ErrorRows        int
	DryRun           bool
	RequiresApproval bool
	ValidationErrors []RowError
	HeadersFound     []string
	ProcessedRows    int
	InsertErrors     []InsertError
}

// SheetRow converts a 0-based data row index to the 1-based spreadsheet row
// number, accounting for the header row.
func SheetRow(rawIndex int) int {
	return rawIndex + 2
}
