// Package middleware holds the echo middleware specific to the API server.
package middleware

import (
	"log/slog"
	"slices"
	"strings"

	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/delivery/http/response"
	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/service"

	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyUserID holds the authenticated staff user id.
	ContextKeyUserID = "userID"
	// ContextKeyRoles holds the roles carried by the bearer token.
	ContextKeyRoles = "roles"

	bearerPrefix = "Bearer "
)

// AuthMiddleware authenticates staff bearer tokens and enforces roles.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, logger: logger}
}

// Authenticate validates the access token and stores the caller on the echo context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, domainerrors.ErrUnauthorized.ErrorCode(), "Authorization header is missing")
		}

		tokenString, ok := strings.CutPrefix(authHeader, bearerPrefix)
		if !ok || tokenString == "" {
			return response.Unauthorized(c, domainerrors.ErrUnauthorized.ErrorCode(), "Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateToken(tokenString)
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Rejected bearer token", slog.Any("error", err))

			return response.Unauthorized(c, domainerrors.ErrUnauthorized.ErrorCode(), "Invalid or expired token")
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRoles, entity.RolesFromStrings(claims.Roles))

		return next(c)
	}
}

// RequireRole rejects callers whose token lacks role. It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(role entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Get(ContextKeyRoles).(entity.Roles)
			if !ok || !slices.Contains(roles, role) {
				return response.Forbidden(c, domainerrors.ErrForbidden.ErrorCode(), "Permission denied: require '"+role.String()+"' role")
			}

			return next(c)
		}
	}
}
