package main

import (
	"context"
	"log/slog"
	"os"

	"lessonsync/config"
	"lessonsync/internal/delivery"
	"lessonsync/internal/delivery/http"
	"lessonsync/internal/delivery/http/middleware"
	"lessonsync/internal/delivery/http/router/handler"
	"lessonsync/internal/delivery/scheduler"
	"lessonsync/internal/infra/auth"
	"lessonsync/internal/infra/calendar"
	"lessonsync/internal/infra/lock"
	logs "lessonsync/internal/infra/log"
	"lessonsync/internal/infra/persistence/postgres"
	"lessonsync/internal/infra/pubsub"
	"lessonsync/internal/usecase"
	"lessonsync/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			drainImports,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			lock.NewKeyedLocker,
		),
		pubsub.Module,
		calendar.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewJWTService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewIdentityService,
			impl.NewMergeService,
			impl.NewImportService,
			impl.NewReviewService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewImportHandler,
			handler.NewIdentityHandler,
			handler.NewAccountHandler,
			handler.NewReviewHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				scheduler.NewScheduler,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// drainImports cancels running imports before the database pool closes.
func drainImports(lc fx.Lifecycle, importer usecase.ImportUsecase) {
	lc.Append(fx.Hook{
		OnStop: importer.Shutdown,
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
