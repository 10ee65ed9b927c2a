package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/fieldops/importer/internal/application/importing"
	record "github.com/fieldops/importer/internal/domain/record"
)

type ImportHandler struct {
	runImport     app.RunImport
	approveImport app.ApproveImport
}

type importRequest struct {
	CompanyID     string           `json:"company_id"`
	UserID        string           `json:"user_id"`
	DataType      string           `json:"data_type"`
	FileName      string           `json:"file_name"`
	DryRun        bool             `json:"dry_run"`
	CheckExisting bool             `json:"check_existing"`
	Rows          []map[string]any `json:"rows"`
	SourcePath    string           `json:"source_path"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(runImport app.RunImport, approveImport app.ApproveImport) *ImportHandler {
	return &ImportHandler{runImport: runImport, approveImport: approveImport}
}

func (h *ImportHandler) Import(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.runImport.Execute(c.Request().Context(), app.RunImportInput{
		CompanyID:     req.CompanyID,
		UserID:        req.UserID,
		DataType:      req.DataType,
		FileName:      req.FileName,
		DryRun:        req.DryRun,
		CheckExisting: req.CheckExisting,
		Rows:          req.Rows,
		SourcePath:    req.SourcePath,
	})
	if err != nil {
		switch {
		case errors.Is(err, record.ErrUnknownDataType):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "unknown_data_type",
				Message: err.Error(),
			}})
		case errors.Is(err, app.ErrEmptyImport):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "empty_import",
				Message: "No data rows found in file",
			}})
		case errors.Is(err, app.ErrReadSource):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_source",
				Message: "could not read import source",
			}})
		default:
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "import failed",
			}})
		}
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) Approve(c echo.Context) error {
	out, err := h.approveImport.Execute(c.Request().Context(), app.ApproveImportInput{
		JobID: c.Param("id"),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidJobID):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_id",
				Message: "job id must be a valid uuid",
			}})
		case errors.Is(err, app.ErrJobNotFound):
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "import job not found",
			}})
		case errors.Is(err, app.ErrJobNotPending):
			return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
				Code:    "not_pending",
				Message: "import job is not pending approval",
			}})
		default:
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "approval failed",
			}})
		}
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
