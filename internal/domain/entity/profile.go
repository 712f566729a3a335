// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderEmailDomain is the domain used for synthetic shadow profile emails.
const PlaceholderEmailDomain = "placeholder.com"

// Profile is a person record. Lessons, songs and assignments reference it by ID.
type Profile struct {
	ID        uuid.UUID // Primary key. Rewritten to the auth user id when a shadow profile is merged.
	Email     string    // Unique across genuine addresses; shadow profiles may carry a placeholder.
	FullName  string    // Display name; overwritten by signup metadata on merge.
	IsShadow  bool      // True until merged into a real authenticated account.
	IsStudent bool      // Role flag, preserved across merge.
	IsTeacher bool      // Role flag, preserved across merge.
	IsAdmin   bool      // Role flag, preserved across merge.
	IsActive  bool      // Soft activation switch.
	CreatedAt time.Time // Timestamp of when this profile was created.
	UpdatedAt time.Time // Timestamp of the last modification.
}

// ProfilePatch holds the mutable fields applied when a shadow profile is merged.
// Role flags are intentionally absent.
type ProfilePatch struct {
	FullName *string
	IsShadow bool
}

// HasPlaceholderEmail reports whether the profile carries a synthetic shadow email.
func (p *Profile) HasPlaceholderEmail() bool {
	return IsPlaceholderEmail(p.Email)
}

// PlaceholderEmail builds the synthetic email for a shadow profile without a known address.
func PlaceholderEmail(id uuid.UUID) string {
	return fmt.Sprintf("shadow_%s@%s", id, PlaceholderEmailDomain)
}

// IsPlaceholderEmail reports whether email has the synthetic shadow form.
func IsPlaceholderEmail(email string) bool {
	normalized := NormalizeEmail(email)

	return strings.HasPrefix(normalized, "shadow_") && strings.HasSuffix(normalized, "@"+PlaceholderEmailDomain)
}

// NormalizeEmail returns the canonical lookup key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the part of email before '@', or the whole trimmed value when there is none.
func EmailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}

	return email
}
