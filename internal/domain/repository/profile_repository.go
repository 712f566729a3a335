// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrProfileNotFound is a domain-specific error returned when a profile is not found.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository is the single write path for person records. Every caller that creates
// or rewrites a profile goes through it so that the one-profile-per-email invariant holds.
type ProfileRepository interface {
	// FindByID retrieves a single profile by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)

	// FindByEmail returns every profile whose email equals the given one case-insensitively,
	// oldest first. More than one row means the store already holds a data defect.
	FindByEmail(ctx context.Context, email string) ([]*entity.Profile, error)

	// LockByEmail behaves like FindByEmail but takes row locks until the surrounding
	// transaction ends.
	LockByEmail(ctx context.Context, email string) ([]*entity.Profile, error)

	// List returns profiles ordered by email, used by the manual review tools.
	List(ctx context.Context, limit, offset int) ([]*entity.Profile, error)

	// Insert persists a new profile. A duplicate email yields ErrProfileAlreadyExists.
	Insert(ctx context.Context, profile *entity.Profile) error

	// InsertIfAbsent persists profile unless one with the same email exists already.
	// It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, profile *entity.Profile) (bool, error)

	// UpdateID rewrites the primary key of the shadow profile oldID to newID and applies patch.
	// Rows referencing oldID follow through ON UPDATE CASCADE.
	UpdateID(ctx context.Context, oldID, newID uuid.UUID, patch entity.ProfilePatch) error
}
