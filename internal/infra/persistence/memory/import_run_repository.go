package memory

import (
	"context"
	"sort"

	"lessonsync/internal/domain/entity"
	"lessonsync/internal/domain/repository"

	"github.com/google/uuid"
)

type importRunRepository struct {
	store *Store
	tx    *state
}

func (r *importRunRepository) Create(_ context.Context, run *entity.ImportRun) error {
	return view(r.store, r.tx, func(st *state) error {
		if run.ID == uuid.Nil {
			run.ID = uuid.New()
		}
		cr := *run
		st.runs[cr.ID] = &cr

		return nil
	})
}

func (r *importRunRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.ImportRun, error) {
	var found *entity.ImportRun
	err := view(r.store, r.tx, func(st *state) error {
		run, ok := st.runs[id]
		if !ok {
			return repository.ErrImportRunNotFound
		}
		cr := *run
		cr.Summary = entity.ImportSummary{
			LessonsCreated:        run.Summary.LessonsCreated,
			ShadowProfilesCreated: run.Summary.ShadowProfilesCreated,
			FailedEvents:          append([]entity.EventFailure(nil), run.Summary.FailedEvents...),
			Skipped:               append([]entity.SkippedEvent(nil), st.skipped[id]...),
		}
		for _, label := range sortedLabels(st.chunks[id]) {
			rec := st.chunks[id][label]
			switch rec.status {
			case entity.ChunkStatusCompleted:
				cr.Summary.CompletedChunks = append(cr.Summary.CompletedChunks, label)
			case entity.ChunkStatusFailed:
				cr.Summary.FailedChunks = append(cr.Summary.FailedChunks, entity.ChunkFailure{
					Label:    label,
					Attempts: rec.attempts,
					Error:    rec.errMsg,
				})
			}
		}
		found = &cr

		return nil
	})

	return found, err
}

func (r *importRunRepository) UpdateStatus(_ context.Context, run *entity.ImportRun) error {
	return view(r.store, r.tx, func(st *state) error {
		stored, ok := st.runs[run.ID]
		if !ok {
			return repository.ErrImportRunNotFound
		}
		stored.Status = run.Status
		stored.FinishedAt = run.FinishedAt
		stored.Summary.LessonsCreated = run.Summary.LessonsCreated
		stored.Summary.ShadowProfilesCreated = run.Summary.ShadowProfilesCreated
		stored.Summary.FailedEvents = append([]entity.EventFailure(nil), run.Summary.FailedEvents...)

		return nil
	})
}

func (r *importRunRepository) RecordChunk(_ context.Context, runID uuid.UUID, label string, status entity.ChunkStatus, attempts int, errMsg string) error {
	return view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpImportRecord); err != nil {
			return err
		}
		if _, ok := st.runs[runID]; !ok {
			return repository.ErrImportRunNotFound
		}
		if st.chunks[runID] == nil {
			st.chunks[runID] = make(map[string]chunkRecord)
		}
		st.chunks[runID][label] = chunkRecord{status: status, attempts: attempts, errMsg: errMsg}

		return nil
	})
}

func (r *importRunRepository) CompletedChunkLabels(_ context.Context, runID uuid.UUID) ([]string, error) {
	var labels []string
	err := view(r.store, r.tx, func(st *state) error {
		for _, label := range sortedLabels(st.chunks[runID]) {
			if st.chunks[runID][label].status == entity.ChunkStatusCompleted {
				labels = append(labels, label)
			}
		}

		return nil
	})

	return labels, err
}

func (r *importRunRepository) AddSkippedEvents(_ context.Context, runID uuid.UUID, events []entity.SkippedEvent) error {
	return view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpImportAddSkipped); err != nil {
			return err
		}
		st.skipped[runID] = append(st.skipped[runID], events...)

		return nil
	})
}

func (r *importRunRepository) ListSkippedEvents(_ context.Context, runID uuid.UUID, reason entity.SkipReason) ([]entity.SkippedEvent, error) {
	var events []entity.SkippedEvent
	err := view(r.store, r.tx, func(st *state) error {
		for _, event := range st.skipped[runID] {
			if reason == "" || event.Reason == reason {
				events = append(events, event)
			}
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].ChunkLabel < events[j].ChunkLabel })

		return nil
	})

	return events, err
}

func sortedLabels(chunks map[string]chunkRecord) []string {
	labels := make([]string, 0, len(chunks))
	for label := range chunks {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	return labels
}
