// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"lessonsync/internal/delivery/http/middleware"
	"lessonsync/internal/delivery/http/router/handler"
	"lessonsync/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ImportHandler   *handler.ImportHandler
	IdentityHandler *handler.IdentityHandler
	AccountHandler  *handler.AccountHandler
	ReviewHandler   *handler.ReviewHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	importHandler   *handler.ImportHandler
	identityHandler *handler.IdentityHandler
	accountHandler  *handler.AccountHandler
	reviewHandler   *handler.ReviewHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		importHandler:   params.ImportHandler,
		identityHandler: params.IdentityHandler,
		accountHandler:  params.AccountHandler,
		reviewHandler:   params.ReviewHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	// Every API route is staff-only.
	api := e.Group("/api")
	api.Use(r.authMiddleware.Authenticate)
	api.Use(r.authMiddleware.RequireRole(entity.RoleAdmin))

	imports := api.Group("/imports")
	{
		imports.POST("", r.importHandler.StartImport)
		imports.GET("/:id", r.importHandler.GetImportRun)
		imports.POST("/:id/cancel", r.importHandler.CancelImport)
		imports.POST("/:id/resume", r.importHandler.ResumeImport)
	}

	api.GET("/identities/resolve", r.identityHandler.Resolve)

	profiles := api.Group("/profiles")
	{
		profiles.POST("", r.accountHandler.RegisterProfile)
		profiles.POST("/shadow", r.identityHandler.CreateShadowProfile)
	}

	api.POST("/accounts", r.accountHandler.AccountCreated)

	review := api.Group("/review")
	{
		review.GET("/runs/:id/skipped", r.reviewHandler.ListSkipped)
		review.GET("/suggestions", r.reviewHandler.SuggestMatches)
	}
}
