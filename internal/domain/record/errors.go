package record

import "errors"

var (
	ErrUnknownDataType = errors.New("Unknown data type")
	ErrJobNotFound     = errors.New("import job not found")
	ErrJobNotPending   = errors.New("import job is not pending approval")
)
