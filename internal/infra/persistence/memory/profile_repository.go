package memory

import (
	"context"
	"sort"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"

	"github.com/google/uuid"
)

type profileRepository struct {
	store *Store
	tx    *state
}

func (r *profileRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	var found *entity.Profile
	err := view(r.store, r.tx, func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return repository.ErrProfileNotFound
		}
		cp := *p
		found = &cp

		return nil
	})

	return found, err
}

func (r *profileRepository) FindByEmail(_ context.Context, email string) ([]*entity.Profile, error) {
	var found []*entity.Profile
	err := view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpProfileFind); err != nil {
			return err
		}
		key := entity.NormalizeEmail(email)
		found = sortedProfiles(st.profiles, func(p *entity.Profile) bool {
			return entity.NormalizeEmail(p.Email) == key
		})

		return nil
	})

	return found, err
}

// LockByEmail needs no extra locking: transactions are already serialized.
func (r *profileRepository) LockByEmail(ctx context.Context, email string) ([]*entity.Profile, error) {
	return r.FindByEmail(ctx, email)
}

func (r *profileRepository) List(_ context.Context, limit, offset int) ([]*entity.Profile, error) {
	var page []*entity.Profile
	err := view(r.store, r.tx, func(st *state) error {
		all := sortedProfiles(st.profiles, func(*entity.Profile) bool { return true })
		sort.SliceStable(all, func(i, j int) bool { return all[i].Email < all[j].Email })
		if offset >= len(all) {
			return nil
		}
		end := len(all)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		page = all[offset:end]

		return nil
	})

	return page, err
}

func (r *profileRepository) Insert(_ context.Context, profile *entity.Profile) error {
	return view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpProfileInsert); err != nil {
			return err
		}
		if emailTaken(st, profile.Email) || idTaken(st, profile.ID) {
			return domainerrors.ErrProfileAlreadyExists.WrapMessage("email already exists")
		}
		insertProfile(r.store, st, profile)

		return nil
	})
}

func (r *profileRepository) InsertIfAbsent(_ context.Context, profile *entity.Profile) (bool, error) {
	inserted := false
	err := view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpProfileInsert); err != nil {
			return err
		}
		if emailTaken(st, profile.Email) {
			return nil
		}
		if idTaken(st, profile.ID) {
			return domainerrors.ErrProfileAlreadyExists.WrapMessage("id already exists")
		}
		insertProfile(r.store, st, profile)
		inserted = true

		return nil
	})

	return inserted, err
}

func (r *profileRepository) UpdateID(_ context.Context, oldID, newID uuid.UUID, patch entity.ProfilePatch) error {
	return view(r.store, r.tx, func(st *state) error {
		if err := r.store.takeFault(OpProfileUpdateID); err != nil {
			return err
		}
		p, ok := st.profiles[oldID]
		if !ok || !p.IsShadow {
			return repository.ErrProfileNotFound
		}
		if oldID != newID && idTaken(st, newID) {
			return domainerrors.ErrMergeConflict.WrapMessage("account id already belongs to another profile")
		}

		delete(st.profiles, oldID)
		p.ID = newID
		p.IsShadow = patch.IsShadow
		if patch.FullName != nil {
			p.FullName = *patch.FullName
		}
		p.UpdatedAt = r.store.now()
		st.profiles[newID] = p

		// ON UPDATE CASCADE
		for _, l := range st.lessons {
			if l.StudentID == oldID {
				l.StudentID = newID
			}
			if l.TeacherID == oldID {
				l.TeacherID = newID
			}
		}

		return nil
	})
}

// emailTaken applies the column's unique constraint, which compares stored strings exactly.
func emailTaken(st *state, email string) bool {
	for _, p := range st.profiles {
		if p.Email == email {
			return true
		}
	}

	return false
}

func idTaken(st *state, id uuid.UUID) bool {
	_, ok := st.profiles[id]

	return ok
}

func insertProfile(s *Store, st *state, profile *entity.Profile) {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	cp := *profile
	s.stamp(&cp)
	st.profiles[cp.ID] = &cp

	profile.CreatedAt = cp.CreatedAt
	profile.UpdatedAt = cp.UpdatedAt
}
