// Package scheduler runs the rolling calendar import on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"lessonsync/config"
	"lessonsync/internal/delivery"
	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/domain/entity"
	"lessonsync/internal/domain/lifecycle"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

// Importer is the part of the import use case the scheduler drives.
type Importer interface {
	RunImport(ctx context.Context, input *usecase.StartImportInput) (*entity.ImportRun, error)
}

// Params holds dependencies for the scheduler, injected by Fx
type Params struct {
	fx.In

	Lc       fx.Lifecycle
	Config   *config.Config
	Importer usecase.ImportUsecase
	Logger   *slog.Logger
	Now      func() time.Time `optional:"true"`
}

// Scheduler imports [today-lookbackDays, today+lookaheadDays] every time importer.schedule fires.
type Scheduler struct {
	cron      *cron.Cron
	importer  Importer
	teacherID uuid.UUID
	lookback  int
	lookahead int
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduler creates the scheduler. An empty importer.schedule yields a scheduler that never fires.
func NewScheduler(params Params) (delivery.Delivery, error) {
	s, err := newScheduler(params.Config.Importer, params.Importer, params.Now, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: s.stop,
	})

	return s, nil
}

func newScheduler(cfg *config.ImporterConfig, importer Importer, now func() time.Time, logger *slog.Logger) (*Scheduler, error) {
	if now == nil {
		now = time.Now
	}

	s := &Scheduler{
		importer:  importer,
		lookback:  cfg.LookbackDays,
		lookahead: cfg.LookaheadDays,
		now:       now,
		logger:    logger.With(slog.String("component", "scheduler")),
	}

	if cfg.Schedule == "" {
		return s, nil
	}

	teacherID, err := uuid.Parse(cfg.TeacherID)
	if err != nil {
		return nil, errors.Wrap(err, "importer.teacherId must be a valid UUID when importer.schedule is set")
	}
	s.teacherID = teacherID

	cronLogger := &cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := s.cron.AddFunc(cfg.Schedule, s.tick); err != nil {
		return nil, errors.Wrapf(err, "invalid importer.schedule %q", cfg.Schedule)
	}

	return s, nil
}

// Serve starts the cron loop and returns immediately.
func (s *Scheduler) Serve(_ context.Context) error {
	if s.cron == nil {
		s.logger.Info("Rolling import disabled, no schedule configured")

		return nil
	}

	s.logger.Info("Starting rolling import scheduler",
		slog.String("teacher_id", s.teacherID.String()),
		slog.Int("lookback_days", s.lookback),
		slog.Int("lookahead_days", s.lookahead),
	)
	s.cron.Start()

	return nil
}

func (s *Scheduler) stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	s.logger.Info("Stopping rolling import scheduler")

	ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scheduled import still running")
	}
}

func (s *Scheduler) tick() {
	requestID := uuid.NewString()
	logger := s.logger.With(slog.String("request_id", requestID))
	ctx := deliverycontext.WithLogger(deliverycontext.WithRequestID(context.Background(), requestID), logger)

	if _, err := s.RunOnce(ctx); err != nil {
		logger.Error("Scheduled import failed", slog.Any("error", err))
	}
}

// RunOnce imports the rolling window around the current day.
func (s *Scheduler) RunOnce(ctx context.Context) (*entity.ImportRun, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	input := &usecase.StartImportInput{
		TeacherID: s.teacherID,
		Start:     today.AddDate(0, 0, -s.lookback),
		End:       today.AddDate(0, 0, s.lookahead),
	}

	run, err := s.importer.RunImport(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "rolling import")
	}

	deliverycontext.GetLoggerOrDefault(ctx, s.logger).Info("Scheduled import finished",
		slog.String("run_id", run.ID.String()),
		slog.String("status", string(run.Status)),
		slog.Int("lessons_created", run.Summary.LessonsCreated),
	)

	return run, nil
}

// cronLogger forwards robfig/cron's logr-style calls to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
