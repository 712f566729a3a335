package handler

import (
	"log/slog"
	"net/http"
	"time"

	"lessonsync/internal/delivery/http/response"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ImportHandlerParams holds dependencies for ImportHandler, injected by Fx.
type ImportHandlerParams struct {
	fx.In

	ImportUC usecase.ImportUsecase
	Logger   *slog.Logger
}

// ImportHandler exposes the calendar import runs.
type ImportHandler struct {
	importUC usecase.ImportUsecase
	logger   *slog.Logger
}

// NewImportHandler is the constructor for ImportHandler
func NewImportHandler(params ImportHandlerParams) *ImportHandler {
	return &ImportHandler{
		importUC: params.ImportUC,
		logger:   params.Logger,
	}
}

// StartImportRequest is an import over the inclusive days [start, end].
type StartImportRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	Start     string `json:"start" validate:"required,datetime=2006-01-02"`
	End       string `json:"end" validate:"required,datetime=2006-01-02"`
}

func (r *StartImportRequest) toInput() (*usecase.StartImportInput, error) {
	start, err := time.Parse(dateLayout, r.Start)
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("start must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, r.End)
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("end must be YYYY-MM-DD")
	}

	return &usecase.StartImportInput{
		TeacherID: uuid.MustParse(r.TeacherID),
		Start:     start,
		End:       end,
	}, nil
}

// StartImport creates a run and processes it in the background.
func (h *ImportHandler) StartImport(c echo.Context) error {
	var req StartImportRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid import input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	input, err := req.toInput()
	if err != nil {
		return response.HandleAppError(c, err)
	}

	run, err := h.importUC.StartImport(c.Request().Context(), input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusAccepted, newImportRunResponse(run), "Import started")
}

// GetImportRun returns the persisted state of a run.
func (h *ImportHandler) GetImportRun(c echo.Context) error {
	runID, err := parseIDParam(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	run, err := h.importUC.GetImportRun(c.Request().Context(), runID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newImportRunResponse(run), "")
}

// CancelImport stops dispatching new chunks of an active run.
func (h *ImportHandler) CancelImport(c echo.Context) error {
	runID, err := parseIDParam(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := h.importUC.CancelImport(c.Request().Context(), runID); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusAccepted, map[string]string{"id": runID.String()}, "Cancellation requested")
}

// ResumeImport reprocesses the chunks of a run that did not complete.
func (h *ImportHandler) ResumeImport(c echo.Context) error {
	runID, err := parseIDParam(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	run, err := h.importUC.ResumeImport(c.Request().Context(), runID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusAccepted, newImportRunResponse(run), "Import resumed")
}

// parseIDParam reads the :id path parameter.
func parseIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails("id must be a UUID")
	}

	return id, nil
}
