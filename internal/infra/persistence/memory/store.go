// Package memory is an in-process implementation of the repository contracts. It mirrors the
// PostgreSQL schema rules that matter to the identity core: unique emails, the
// (source, external_event_id) lesson key, profile foreign keys and ON UPDATE CASCADE.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lessonsync/internal/domain/entity"
	"lessonsync/internal/domain/repository"

	"github.com/google/uuid"
)

// Operation names accepted by InjectFault.
const (
	OpProfileInsert    = "profiles.insert"
	OpProfileUpdateID  = "profiles.update_id"
	OpProfileFind      = "profiles.find"
	OpLessonCreate     = "lessons.create"
	OpImportRecord     = "import_chunks.record"
	OpImportAddSkipped = "import_skipped_events.insert"
)

type fault struct {
	err  error
	skip int
}

type chunkRecord struct {
	status   entity.ChunkStatus
	attempts int
	errMsg   string
}

type state struct {
	profiles map[uuid.UUID]*entity.Profile
	lessons  map[uuid.UUID]*entity.Lesson
	runs     map[uuid.UUID]*entity.ImportRun
	chunks   map[uuid.UUID]map[string]chunkRecord
	skipped  map[uuid.UUID][]entity.SkippedEvent
}

func newState() *state {
	return &state{
		profiles: make(map[uuid.UUID]*entity.Profile),
		lessons:  make(map[uuid.UUID]*entity.Lesson),
		runs:     make(map[uuid.UUID]*entity.ImportRun),
		chunks:   make(map[uuid.UUID]map[string]chunkRecord),
		skipped:  make(map[uuid.UUID][]entity.SkippedEvent),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, p := range s.profiles {
		cp := *p
		c.profiles[id] = &cp
	}
	for id, l := range s.lessons {
		cl := *l
		c.lessons[id] = &cl
	}
	for id, r := range s.runs {
		cr := *r
		c.runs[id] = &cr
	}
	for id, labels := range s.chunks {
		cm := make(map[string]chunkRecord, len(labels))
		for label, rec := range labels {
			cm[label] = rec
		}
		c.chunks[id] = cm
	}
	for id, events := range s.skipped {
		c.skipped[id] = append([]entity.SkippedEvent(nil), events...)
	}

	return c
}

// Store holds the data. Transactions are serialized and run against a snapshot that replaces the
// committed state only when the callback succeeds.
type Store struct {
	mu     sync.Mutex
	data   *state
	faults map[string]*fault
	seq    int64
	now    func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		data:   newState(),
		faults: make(map[string]*fault),
		now:    time.Now,
	}
}

// InjectFault makes the next call of op fail with err.
func (s *Store) InjectFault(op string, err error) {
	s.InjectFaultAt(op, 1, err)
}

// InjectFaultAt makes the nth upcoming call of op fail with err; earlier calls succeed.
func (s *Store) InjectFaultAt(op string, nth int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faults[op] = &fault{err: err, skip: max(nth-1, 0)}
}

// takeFault must be called with mu held.
func (s *Store) takeFault(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--

		return nil
	}
	delete(s.faults, op)

	return f.err
}

// Seed stores profiles as-is, bypassing the email uniqueness rule. It exists to reproduce
// legacy data defects such as two rows sharing one address.
func (s *Store) Seed(profiles ...*entity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range profiles {
		cp := *p
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		s.stamp(&cp)
		s.data.profiles[cp.ID] = &cp
	}
}

// Profiles returns a copy of every committed profile, ordered by creation.
func (s *Store) Profiles() []*entity.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedProfiles(s.data.profiles, func(*entity.Profile) bool { return true })
}

// Lessons returns a copy of every committed lesson, ordered by schedule time.
func (s *Store) Lessons() []*entity.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	lessons := make([]*entity.Lesson, 0, len(s.data.lessons))
	for _, l := range s.data.lessons {
		cl := *l
		lessons = append(lessons, &cl)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].ScheduledAt.Equal(lessons[j].ScheduledAt) {
			return lessons[i].ExternalEventID < lessons[j].ExternalEventID
		}

		return lessons[i].ScheduledAt.Before(lessons[j].ScheduledAt)
	})

	return lessons
}

// LessonsOf returns the committed lessons of one student, ordered by schedule time.
func (s *Store) LessonsOf(studentID uuid.UUID) []*entity.Lesson {
	var lessons []*entity.Lesson
	for _, l := range s.Lessons() {
		if l.StudentID == studentID {
			lessons = append(lessons, l)
		}
	}

	return lessons
}

// stamp assigns monotonically increasing creation times so ordering is deterministic.
func (s *Store) stamp(p *entity.Profile) {
	s.seq++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().Add(time.Duration(s.seq) * time.Nanosecond)
	}
	p.UpdatedAt = p.CreatedAt
}

// NewTransactionManager returns a TransactionManager backed by s.
func NewTransactionManager(s *Store) repository.TransactionManager {
	return &txManager{store: s}
}

type txManager struct {
	store *Store
}

// Execute runs fn against a snapshot; the snapshot is committed only if fn returns nil.
func (tm *txManager) Execute(ctx context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := tm.store.data.clone()
	if err := fn(&factory{store: tm.store, tx: snapshot}); err != nil {
		return err
	}
	tm.store.data = snapshot

	return nil
}

type factory struct {
	store *Store
	tx    *state
}

func (f *factory) NewProfileRepository() repository.ProfileRepository {
	return &profileRepository{store: f.store, tx: f.tx}
}

func (f *factory) NewLessonRepository() repository.LessonRepository {
	return &lessonRepository{store: f.store, tx: f.tx}
}

func (f *factory) NewImportRunRepository() repository.ImportRunRepository {
	return &importRunRepository{store: f.store, tx: f.tx}
}

// NewProfileRepository returns a non-transactional profile repository.
func NewProfileRepository(s *Store) repository.ProfileRepository {
	return &profileRepository{store: s}
}

// NewLessonRepository returns a non-transactional lesson repository.
func NewLessonRepository(s *Store) repository.LessonRepository {
	return &lessonRepository{store: s}
}

// NewImportRunRepository returns a non-transactional import run repository.
func NewImportRunRepository(s *Store) repository.ImportRunRepository {
	return &importRunRepository{store: s}
}

// view runs fn on the transaction snapshot, or on the committed state under the store lock.
func view(s *Store, tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.data)
}

func sortedProfiles(profiles map[uuid.UUID]*entity.Profile, keep func(*entity.Profile) bool) []*entity.Profile {
	out := make([]*entity.Profile, 0)
	for _, p := range profiles {
		if !keep(p) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}
