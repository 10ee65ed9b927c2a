package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/fieldops/importer/internal/application/importing"
)

type JobHandler struct {
	getJob app.GetImportJob
}

func NewJobHandler(getJob app.GetImportJob) *JobHandler {
	return &JobHandler{getJob: getJob}
}

func (h *JobHandler) GetJob(c echo.Context) error {
	out, err := h.getJob.Execute(c.Request().Context(), app.GetImportJobInput{
		ID: c.Param("id"),
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
		default:
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "failed to load import job",
			}})
		}
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
