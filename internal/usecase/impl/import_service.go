package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lessonsync/config"
	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/domain/service"
	"lessonsync/internal/usecase"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// ImportServiceParams defines the dependencies of the import service.
type ImportServiceParams struct {
	fx.In

	Config    *config.Config
	TxManager repository.TransactionManager
	Calendar  service.CalendarClient
	Identity  usecase.IdentityUsecase
	Publisher service.EventPublisher
	Logger    *slog.Logger
	Now       func() time.Time `optional:"true"`
}

// importService implements the ImportUsecase interface.
type importService struct {
	txManager    repository.TransactionManager
	calendar     service.CalendarClient
	identity     usecase.IdentityUsecase
	publisher    service.EventPublisher
	classifier   *EventClassifier
	materializer *LessonMaterializer
	logger       *slog.Logger
	now          func() time.Time

	workers        int
	maxRetries     int
	initialBackoff time.Duration
	organizerEmail string

	mu     sync.Mutex
	active map[uuid.UUID]*activeRun
	wg     sync.WaitGroup
}

type activeRun struct {
	cancel context.CancelFunc
}

// pendingLesson is a materialized lesson waiting for its chunk to commit.
type pendingLesson struct {
	lesson     *entity.Lesson
	email      string
	reresolved bool
}

// NewImportService is the constructor for importService.
func NewImportService(params ImportServiceParams) usecase.ImportUsecase {
	now := params.Now
	if now == nil {
		now = time.Now
	}

	importerCfg := params.Config.Importer
	if importerCfg == nil {
		importerCfg = &config.ImporterConfig{}
	}

	var organizerEmail string
	if params.Config.Calendar != nil {
		organizerEmail = params.Config.Calendar.OrganizerEmail
	}

	return &importService{
		txManager:      params.TxManager,
		calendar:       params.Calendar,
		identity:       params.Identity,
		publisher:      params.Publisher,
		classifier:     NewEventClassifier(importerCfg.BookingMarker),
		materializer:   NewLessonMaterializer(now),
		logger:         params.Logger,
		now:            now,
		workers:        max(importerCfg.Workers, 1),
		maxRetries:     max(importerCfg.MaxRetries, 0),
		initialBackoff: importerCfg.InitialBackoff,
		organizerEmail: organizerEmail,
		active:         make(map[uuid.UUID]*activeRun),
	}
}

func (srv *importService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// StartImport creates the run and processes it in the background.
func (srv *importService) StartImport(ctx context.Context, input *usecase.StartImportInput) (*entity.ImportRun, error) {
	run, chunks, err := srv.createRun(ctx, input)
	if err != nil {
		return nil, err
	}

	runCtx, ar, err := srv.register(context.WithoutCancel(ctx), run.ID)
	if err != nil {
		return nil, err
	}

	snapshot := *run
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()

		srv.execute(runCtx, ar, run, chunks)
	}()

	return &snapshot, nil
}

// RunImport creates the run and processes it before returning.
func (srv *importService) RunImport(ctx context.Context, input *usecase.StartImportInput) (*entity.ImportRun, error) {
	run, chunks, err := srv.createRun(ctx, input)
	if err != nil {
		return nil, err
	}

	runCtx, ar, err := srv.register(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	srv.wg.Add(1)
	defer srv.wg.Done()

	return srv.execute(runCtx, ar, run, chunks), nil
}

// GetImportRun returns the persisted state of a run.
func (srv *importService) GetImportRun(ctx context.Context, runID uuid.UUID) (*entity.ImportRun, error) {
	var run *entity.ImportRun
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.NewImportRunRepository().FindByID(ctx, runID)
		if err != nil {
			if errors.Is(err, repository.ErrImportRunNotFound) {
				return errors.Wrap(domainerrors.ErrImportRunNotFound, "import run not found")
			}

			return errors.Wrap(err, "failed to find import run")
		}
		run = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CancelImport stops dispatching new chunks; chunks already running finish and commit.
func (srv *importService) CancelImport(ctx context.Context, runID uuid.UUID) error {
	srv.mu.Lock()
	ar, ok := srv.active[runID]
	srv.mu.Unlock()

	if ok {
		srv.log(ctx).Info("Cancelling import run", slog.Any("run_id", runID))
		ar.cancel()

		return nil
	}

	if _, err := srv.GetImportRun(ctx, runID); err != nil {
		return err
	}

	return errors.Wrap(domainerrors.ErrImportRunNotActive, "import run is not running in this instance")
}

// ResumeImport re-dispatches the chunks of a run that have not completed.
func (srv *importService) ResumeImport(ctx context.Context, runID uuid.UUID) (*entity.ImportRun, error) {
	if srv.isActive(runID) {
		return nil, domainerrors.ErrImportRunNotResumable.WithDetails("run is still active")
	}

	run, err := srv.GetImportRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run.Status == entity.ImportRunStatusCompleted && len(run.Summary.FailedChunks) == 0 {
		return nil, domainerrors.ErrImportRunNotResumable.WithDetails("run already completed")
	}

	planned, err := PlanChunks(run.RangeStart, run.RangeEnd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to plan chunks")
	}

	var completedLabels []string
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		completedLabels, err = repoFactory.NewImportRunRepository().CompletedChunkLabels(ctx, runID)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load completed chunks")
	}

	done := make(map[string]bool, len(completedLabels))
	for _, label := range completedLabels {
		done[label] = true
	}

	remaining := make([]entity.Chunk, 0, len(planned))
	for _, chunk := range planned {
		if !done[chunk.Label] {
			remaining = append(remaining, chunk)
		}
	}
	if len(remaining) == 0 {
		return nil, domainerrors.ErrImportRunNotResumable.WithDetails("no chunks left to import")
	}

	// Failures of chunks about to be retried are recomputed.
	failedEvents := run.Summary.FailedEvents[:0]
	for _, failure := range run.Summary.FailedEvents {
		if done[failure.ChunkLabel] {
			failedEvents = append(failedEvents, failure)
		}
	}
	run.Summary.FailedEvents = failedEvents
	run.Summary.FailedChunks = nil
	run.Status = entity.ImportRunStatusRunning
	run.FinishedAt = nil

	if err := srv.persistStatus(ctx, run); err != nil {
		return nil, err
	}

	runCtx, ar, err := srv.register(context.WithoutCancel(ctx), run.ID)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Resuming import run",
		slog.Any("run_id", run.ID),
		slog.Int("remaining_chunks", len(remaining)),
	)

	snapshot := *run
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()

		srv.execute(runCtx, ar, run, remaining)
	}()

	return &snapshot, nil
}

// Shutdown cancels every active run and waits for in-flight chunks.
func (srv *importService) Shutdown(ctx context.Context) error {
	srv.mu.Lock()
	for _, ar := range srv.active {
		ar.cancel()
	}
	srv.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "import runs did not stop in time")
	}
}

// createRun validates the input and persists a RUNNING run.
func (srv *importService) createRun(ctx context.Context, input *usecase.StartImportInput) (*entity.ImportRun, []entity.Chunk, error) {
	if input == nil || input.TeacherID == uuid.Nil {
		return nil, nil, errors.Wrap(domainerrors.ErrValidationFailed, "teacher id is required")
	}

	// Days are taken as written by the caller and planned in UTC so a persisted run re-plans identically.
	chunks, err := PlanChunks(calendarDayUTC(input.Start), calendarDayUTC(input.End))
	if err != nil {
		return nil, nil, err
	}

	run := &entity.ImportRun{
		ID:         uuid.New(),
		TeacherID:  input.TeacherID,
		RangeStart: chunks[0].Start,
		RangeEnd:   chunks[len(chunks)-1].End.AddDate(0, 0, -1),
		Status:     entity.ImportRunStatusRunning,
		StartedAt:  srv.now().UTC(),
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.NewProfileRepository().FindByID(ctx, input.TeacherID); err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				return domainerrors.ErrValidationFailed.WithDetails("teacher profile not found")
			}

			return errors.Wrap(err, "failed to find teacher profile")
		}

		return repoFactory.NewImportRunRepository().Create(ctx, run)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create import run")
	}

	srv.log(ctx).Info("Import run created",
		slog.Any("run_id", run.ID),
		slog.Time("range_start", run.RangeStart),
		slog.Time("range_end", run.RangeEnd),
		slog.Int("chunks", len(chunks)),
	)

	return run, chunks, nil
}

func (srv *importService) register(parent context.Context, runID uuid.UUID) (context.Context, *activeRun, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if _, ok := srv.active[runID]; ok {
		return nil, nil, domainerrors.ErrImportRunNotResumable.WithDetails("run is still active")
	}

	runCtx, cancel := context.WithCancel(parent)
	ar := &activeRun{cancel: cancel}
	srv.active[runID] = ar

	return runCtx, ar, nil
}

func (srv *importService) unregister(runID uuid.UUID, ar *activeRun) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	ar.cancel()
	if srv.active[runID] == ar {
		delete(srv.active, runID)
	}
}

func (srv *importService) isActive(runID uuid.UUID) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	_, ok := srv.active[runID]

	return ok
}

// execute dispatches chunks to a bounded pool until they are exhausted or the run is cancelled.
// A started chunk runs on a context detached from cancellation so it always commits whole.
// The run stops being active before its terminal status is stored.
func (srv *importService) execute(runCtx context.Context, ar *activeRun, run *entity.ImportRun, chunks []entity.Chunk) *entity.ImportRun {
	logger := srv.log(runCtx).With(slog.Any("run_id", run.ID))
	chunkCtx := deliverycontext.WithLogger(context.WithoutCancel(runCtx), logger)

	var summaryMu sync.Mutex
	completed, failed := 0, 0

	group := new(errgroup.Group)
	group.SetLimit(srv.workers)

	for _, chunk := range chunks {
		if runCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			// Cancelled while waiting for a free worker.
			if runCtx.Err() != nil {
				return nil
			}

			result := srv.processChunk(chunkCtx, run, chunk)

			summaryMu.Lock()
			defer summaryMu.Unlock()

			run.Summary.Merge(result)
			if len(result.FailedChunks) > 0 {
				failed++
			} else {
				completed++
			}
			if err := srv.persistStatus(chunkCtx, run); err != nil {
				logger.Warn("Failed to persist import progress", slog.Any("error", err))
			}

			return nil
		})
	}
	_ = group.Wait()
	srv.unregister(run.ID, ar)

	processed := completed + failed

	finishedAt := srv.now().UTC()
	run.FinishedAt = &finishedAt
	switch {
	case processed < len(chunks):
		run.Status = entity.ImportRunStatusCancelled
	case completed == 0 && failed > 0:
		run.Status = entity.ImportRunStatusFailed
	default:
		run.Status = entity.ImportRunStatusCompleted
	}

	if err := srv.persistStatus(chunkCtx, run); err != nil {
		logger.Error("Failed to persist import run result", slog.Any("error", err))
	}

	logger.Info("Import run finished",
		slog.String("status", string(run.Status)),
		slog.Int("lessons_created", run.Summary.LessonsCreated),
		slog.Int("shadow_profiles_created", run.Summary.ShadowProfilesCreated),
		slog.Int("skipped", len(run.Summary.Skipped)),
		slog.Int("failed_events", len(run.Summary.FailedEvents)),
		slog.Int("failed_chunks", len(run.Summary.FailedChunks)),
		slog.Int("unprocessed_chunks", len(chunks)-processed),
	)

	srv.publishCompleted(chunkCtx, run)

	snapshot := *run

	return &snapshot
}

// processChunk imports one window, retrying the whole window on transient failures.
func (srv *importService) processChunk(ctx context.Context, run *entity.ImportRun, chunk entity.Chunk) *entity.ImportSummary {
	logger := srv.log(ctx).With(slog.String("chunk", chunk.Label))

	attempts := 0
	shadowsCreated := 0
	var result *entity.ImportSummary

	operation := func() error {
		attempts++

		summary, created, err := srv.importChunk(ctx, run, chunk, attempts)
		// Shadow profiles are committed immediately, so they count even when the attempt fails.
		shadowsCreated += created
		if err != nil {
			if domainerrors.IsTransient(err) {
				return err
			}

			return backoff.Permanent(err)
		}
		result = summary

		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = srv.initialBackoff
	expBackoff.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(srv.maxRetries)), ctx),
		func(err error, wait time.Duration) {
			logger.Warn("Chunk attempt failed, retrying",
				slog.Int("attempt", attempts),
				slog.Duration("backoff", wait),
				slog.Any("error", err),
			)
		},
	)
	if err != nil {
		logger.Error("Chunk failed", slog.Int("attempts", attempts), slog.Any("error", err))

		if recErr := srv.recordChunkFailure(ctx, run.ID, chunk.Label, attempts, err); recErr != nil {
			logger.Warn("Failed to record chunk failure", slog.Any("error", recErr))
		}

		return &entity.ImportSummary{
			ShadowProfilesCreated: shadowsCreated,
			FailedChunks: []entity.ChunkFailure{{
				Label:    chunk.Label,
				Attempts: attempts,
				Error:    err.Error(),
			}},
		}
	}

	result.ShadowProfilesCreated += shadowsCreated
	logger.Info("Chunk imported",
		slog.Int("attempts", attempts),
		slog.Int("lessons_created", result.LessonsCreated),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed_events", len(result.FailedEvents)),
	)

	return result
}

// importChunk runs one attempt. It returns the number of shadow profiles it created even on error.
func (srv *importService) importChunk(ctx context.Context, run *entity.ImportRun, chunk entity.Chunk, attempt int) (*entity.ImportSummary, int, error) {
	events, err := srv.calendar.ListEvents(ctx, chunk.Start, chunk.End)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list calendar events")
	}

	summary := &entity.ImportSummary{}
	pending := make([]*pendingLesson, 0, len(events))
	shadowsCreated := 0

	for i := range events {
		event := &events[i]

		// Windows are half-open; anything else belongs to a neighbouring chunk.
		if event.ID == "" || event.Start.Before(chunk.Start) || !event.Start.Before(chunk.End) {
			continue
		}

		lesson, created, err := srv.prepareEvent(ctx, run, chunk, event, summary)
		if created {
			shadowsCreated++
		}
		if err != nil {
			if domainerrors.IsTransient(err) {
				return nil, shadowsCreated, err
			}
			srv.recordEventFailure(ctx, summary, chunk.Label, event.ID, lessonEmail(lesson, event, srv.organizer(event)), err)

			continue
		}
		if lesson != nil {
			pending = append(pending, lesson)
		}
	}

	if err := srv.commitChunk(ctx, run, chunk, attempt, pending, summary); err != nil {
		return nil, shadowsCreated, err
	}

	return summary, shadowsCreated, nil
}

// prepareEvent classifies, extracts and resolves one event. A nil lesson with a nil error means
// the event was skipped and recorded in summary.
func (srv *importService) prepareEvent(ctx context.Context, run *entity.ImportRun, chunk entity.Chunk, event *entity.CalendarEvent, summary *entity.ImportSummary) (*pendingLesson, bool, error) {
	if !srv.classifier.IsLesson(event) {
		summary.Skipped = append(summary.Skipped, skipped(chunk, event, "", entity.SkipReasonNotLesson, nil))

		return nil, false, nil
	}

	attendee, ok := ExtractAttendee(event.Attendees, srv.organizer(event))
	if !ok || entity.NormalizeEmail(attendee.Email) == "" {
		summary.Skipped = append(summary.Skipped, skipped(chunk, event, "", entity.SkipReasonNoAttendee, nil))

		return nil, false, nil
	}
	email := entity.NormalizeEmail(attendee.Email)

	imported, err := srv.alreadyImported(ctx, event.ID)
	if err != nil {
		return nil, false, err
	}
	if imported {
		summary.Skipped = append(summary.Skipped, skipped(chunk, event, email, entity.SkipReasonAlreadyImported, nil))

		return nil, false, nil
	}

	match, err := srv.identity.Resolve(ctx, email)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to resolve attendee")
	}

	var studentID uuid.UUID
	created := false

	switch m := match.(type) {
	case entity.Matched:
		studentID = m.ProfileID
	case entity.Ambiguous:
		summary.Skipped = append(summary.Skipped, skipped(chunk, event, email, entity.SkipReasonAmbiguous, m.CandidateIDs))

		return nil, false, nil
	case entity.NotFound:
		firstName, lastName := SplitDisplayName(attendee.DisplayName, attendee.Email)
		output, err := srv.identity.EnsureShadowProfile(ctx, &usecase.ShadowProfileInput{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
		})
		if err != nil {
			if errors.Is(err, domainerrors.ErrAmbiguousIdentity) {
				summary.Skipped = append(summary.Skipped, skipped(chunk, event, email, entity.SkipReasonAmbiguous, srv.candidates(ctx, email)))

				return nil, false, nil
			}

			return &pendingLesson{email: email}, false, errors.Wrap(err, "failed to ensure shadow profile")
		}
		studentID = output.ProfileID
		created = output.Created
	}

	return &pendingLesson{
		lesson: srv.materializer.Materialize(studentID, run.TeacherID, event),
		email:  email,
	}, created, nil
}

// commitChunk writes the lessons, the review queue entries and the chunk label in one
// transaction. A lesson rejected by a constraint is dropped and reported, and the rest are retried.
func (srv *importService) commitChunk(ctx context.Context, run *entity.ImportRun, chunk entity.Chunk, attempt int, pending []*pendingLesson, summary *entity.ImportSummary) error {
	for {
		failedIdx := -1
		created := 0
		var duplicates []entity.SkippedEvent

		err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			lessonRepo := repoFactory.NewLessonRepository()
			for i, p := range pending {
				ok, err := lessonRepo.CreateIfAbsent(ctx, p.lesson)
				if err != nil {
					if !domainerrors.IsTransient(err) {
						failedIdx = i
					}

					return errors.Wrap(err, "failed to create lesson")
				}
				if ok {
					created++
				} else {
					duplicates = append(duplicates, entity.SkippedEvent{
						ChunkLabel: chunk.Label,
						EventID:    p.lesson.ExternalEventID,
						Title:      p.lesson.Title,
						StartsAt:   p.lesson.ScheduledAt,
						Email:      p.email,
						Reason:     entity.SkipReasonAlreadyImported,
					})
				}
			}

			importRepo := repoFactory.NewImportRunRepository()
			if err := importRepo.AddSkippedEvents(ctx, run.ID, append(summary.Skipped, duplicates...)); err != nil {
				return errors.Wrap(err, "failed to store skipped events")
			}

			return importRepo.RecordChunk(ctx, run.ID, chunk.Label, entity.ChunkStatusCompleted, attempt, "")
		})
		if err == nil {
			summary.LessonsCreated = created
			summary.Skipped = append(summary.Skipped, duplicates...)
			summary.CompletedChunks = []string{chunk.Label}

			return nil
		}
		if failedIdx < 0 {
			return err
		}

		rejected := pending[failedIdx]
		if !rejected.reresolved && errors.Is(err, domainerrors.ErrLessonCreationFailed) {
			// The student may have been merged (id rewritten) since it was resolved.
			if id, ok := srv.reresolve(ctx, rejected.email); ok && id != rejected.lesson.StudentID {
				rejected.lesson.StudentID = id
				rejected.reresolved = true

				continue
			}
		}

		srv.recordEventFailure(ctx, summary, chunk.Label, rejected.lesson.ExternalEventID, rejected.email, err)
		pending = append(pending[:failedIdx], pending[failedIdx+1:]...)
	}
}

func (srv *importService) reresolve(ctx context.Context, email string) (uuid.UUID, bool) {
	match, err := srv.identity.Resolve(ctx, email)
	if err != nil {
		return uuid.Nil, false
	}
	matched, ok := match.(entity.Matched)
	if !ok {
		return uuid.Nil, false
	}

	return matched.ProfileID, true
}

// candidates re-reads the duplicate profiles behind an email that turned ambiguous after it resolved as unknown.
func (srv *importService) candidates(ctx context.Context, email string) []uuid.UUID {
	match, err := srv.identity.Resolve(ctx, email)
	if err != nil {
		srv.log(ctx).Warn("Failed to list ambiguous candidates", slog.String("email", email), slog.Any("error", err))

		return nil
	}

	if ambiguous, ok := match.(entity.Ambiguous); ok {
		return ambiguous.CandidateIDs
	}

	return nil
}

func (srv *importService) alreadyImported(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.NewLessonRepository().ExistsByExternalID(ctx, entity.LessonSourceCalendar, eventID)
		exists = found

		return err
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to check imported lessons")
	}

	return exists, nil
}

func (srv *importService) recordEventFailure(ctx context.Context, summary *entity.ImportSummary, label, eventID, email string, err error) {
	srv.log(ctx).Error("Event import failed",
		slog.String("chunk", label),
		slog.String("event_id", eventID),
		slog.String("email", email),
		slog.Any("error", err),
	)

	summary.FailedEvents = append(summary.FailedEvents, entity.EventFailure{
		ChunkLabel: label,
		EventID:    eventID,
		Email:      email,
		Error:      err.Error(),
	})
}

func (srv *importService) recordChunkFailure(ctx context.Context, runID uuid.UUID, label string, attempts int, cause error) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewImportRunRepository().RecordChunk(ctx, runID, label, entity.ChunkStatusFailed, attempts, cause.Error())
	})
}

func (srv *importService) persistStatus(ctx context.Context, run *entity.ImportRun) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.NewImportRunRepository().UpdateStatus(ctx, run)
	})
}

func (srv *importService) publishCompleted(ctx context.Context, run *entity.ImportRun) {
	event := &service.ImportCompletedEvent{
		RequestID:             deliverycontext.GetRequestIDFromContext(ctx),
		RunID:                 run.ID.String(),
		Status:                string(run.Status),
		LessonsCreated:        run.Summary.LessonsCreated,
		ShadowProfilesCreated: run.Summary.ShadowProfilesCreated,
		Skipped:               len(run.Summary.Skipped),
		FailedEvents:          len(run.Summary.FailedEvents),
		FailedChunks:          len(run.Summary.FailedChunks),
	}

	if err := srv.publisher.PublishImportCompleted(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish import completed event", slog.Any("error", err), slog.Any("run_id", run.ID))
	}
}

// organizer is the configured teacher address, falling back to the event's organizer.
func (srv *importService) organizer(event *entity.CalendarEvent) string {
	if srv.organizerEmail != "" {
		return srv.organizerEmail
	}

	return event.OrganizerEmail
}

func skipped(chunk entity.Chunk, event *entity.CalendarEvent, email string, reason entity.SkipReason, candidates []uuid.UUID) entity.SkippedEvent {
	return entity.SkippedEvent{
		ChunkLabel:   chunk.Label,
		EventID:      event.ID,
		Title:        event.Title,
		StartsAt:     event.Start,
		Email:        email,
		Reason:       reason,
		CandidateIDs: candidates,
	}
}

func lessonEmail(p *pendingLesson, event *entity.CalendarEvent, organizer string) string {
	if p != nil && p.email != "" {
		return p.email
	}
	if attendee, ok := ExtractAttendee(event.Attendees, organizer); ok {
		return entity.NormalizeEmail(attendee.Email)
	}

	return ""
}

func calendarDayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
