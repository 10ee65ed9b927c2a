package importing

import "errors"

var (
	ErrEmptyImport    = errors.New("import file has no data rows")
	ErrReadSource     = errors.New("failed to read import source")
	ErrPersistJob     = errors.New("failed to persist import job")
	ErrStageRows      = errors.New("failed to stage import rows")
	ErrInvalidJobID   = errors.New("invalid import job id")
	ErrJobNotFound    = errors.New("import job not found")
	ErrJobNotPending  = errors.New("import job is not awaiting approval")
	ErrGetImportJob   = errors.New("failed to get import job")
	ErrApproveImport  = errors.New("failed to approve import job")
	ErrFinalizeJob    = errors.New("failed to finalize import job")
	ErrLoadStagedRows = errors.New("failed to load staged import rows")
)
