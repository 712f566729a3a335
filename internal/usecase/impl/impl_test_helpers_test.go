package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"lessonsync/config"
	"lessonsync/internal/domain/entity"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/infra/lock"
	"lessonsync/internal/infra/persistence/memory"
	mockSvc "lessonsync/internal/mocks/service"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

const testOrganizerEmail = "teacher@example.com"

var testNow = time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time {
	return testNow
}

// coreFixtures wires the identity core against the in-memory store.
type coreFixtures struct {
	store     *memory.Store
	txManager repository.TransactionManager
	identity  usecase.IdentityUsecase
	accounts  usecase.AccountUsecase
	publisher *mockSvc.MockEventPublisher
}

func createCoreFixtures(t *testing.T) coreFixtures {
	store := memory.NewStore()
	txManager := memory.NewTransactionManager(store)
	locker := lock.NewLocalLocker()
	publisher := mockSvc.NewMockEventPublisher(t)
	logger := newTestLogger()

	return coreFixtures{
		store:     store,
		txManager: txManager,
		identity:  NewIdentityService(txManager, locker, logger),
		accounts:  NewMergeService(txManager, locker, publisher, logger),
		publisher: publisher,
	}
}

// importFixtures adds the importer on top of the identity core.
type importFixtures struct {
	coreFixtures
	calendar *mockSvc.MockCalendarClient
	importer usecase.ImportUsecase
	teacher  *entity.Profile
}

func createImportFixtures(t *testing.T, workers int) importFixtures {
	core := createCoreFixtures(t)
	calendar := mockSvc.NewMockCalendarClient(t)

	teacher := &entity.Profile{
		ID:        uuid.New(),
		Email:     testOrganizerEmail,
		FullName:  "Teacher",
		IsTeacher: true,
		IsActive:  true,
	}
	core.store.Seed(teacher)

	core.publisher.EXPECT().
		PublishImportCompleted(mock.Anything, mock.Anything).
		Return(nil).
		Maybe()

	cfg := &config.Config{
		Calendar: &config.CalendarConfig{OrganizerEmail: testOrganizerEmail},
		Importer: &config.ImporterConfig{
			Workers:        workers,
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
		},
	}

	importer := NewImportService(ImportServiceParams{
		Config:    cfg,
		TxManager: core.txManager,
		Calendar:  calendar,
		Identity:  core.identity,
		Publisher: core.publisher,
		Logger:    newTestLogger(),
		Now:       fixedClock,
	})

	return importFixtures{
		coreFixtures: core,
		calendar:     calendar,
		importer:     importer,
		teacher:      teacher,
	}
}

func lessonEvent(id string, start time.Time, email, displayName string) entity.CalendarEvent {
	description := "Event Name: 60 Minute Lesson\n\n" + DefaultBookingMarker

	return entity.CalendarEvent{
		ID:             id,
		Title:          "60 Minute Lesson",
		Description:    &description,
		Start:          start,
		End:            start.Add(time.Hour),
		OrganizerEmail: testOrganizerEmail,
		Attendees: []entity.Attendee{
			{Email: testOrganizerEmail, DisplayName: "Teacher"},
			{Email: email, DisplayName: displayName},
		},
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func at(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func findProfileByEmail(store *memory.Store, email string) []*entity.Profile {
	var found []*entity.Profile
	for _, p := range store.Profiles() {
		if entity.NormalizeEmail(p.Email) == entity.NormalizeEmail(email) {
			found = append(found, p)
		}
	}

	return found
}

func stringPtr(s string) *string {
	return &s
}
