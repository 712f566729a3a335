package handler

import (
	"log/slog"
	"net/http"

	"lessonsync/internal/delivery/http/response"
	"lessonsync/internal/domain/entity"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AccountHandlerParams holds dependencies for AccountHandler, injected by Fx.
type AccountHandlerParams struct {
	fx.In

	AccountUC usecase.AccountUsecase
	Logger    *slog.Logger
}

// AccountHandler receives provisioned accounts and administrator-created profiles.
type AccountHandler struct {
	accountUC usecase.AccountUsecase
	logger    *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler
func NewAccountHandler(params AccountHandlerParams) *AccountHandler {
	return &AccountHandler{
		accountUC: params.AccountUC,
		logger:    params.Logger,
	}
}

// AccountCreatedRequest is the notification sent by account provisioning.
type AccountCreatedRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"max=255"`
}

// AccountCreated merges a shadow profile with the same email into the new account.
func (h *AccountHandler) AccountCreated(c echo.Context) error {
	var req AccountCreatedRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.accountUC.OnAccountCreated(c.Request().Context(), req.Email, entity.AccountMetadata{
		UserID:   uuid.MustParse(req.UserID),
		FullName: req.FullName,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newMergeResultResponse(result), "")
}

// RegisterProfile creates the profile of an administrator-created account.
func (h *AccountHandler) RegisterProfile(c echo.Context) error {
	var req usecase.RegisterProfileInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.accountUC.RegisterProfile(c.Request().Context(), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	status := http.StatusCreated
	if result.Outcome != entity.MergeOutcomeNoShadow {
		status = http.StatusOK
	}

	return response.Success(c, status, newMergeResultResponse(result), "")
}
