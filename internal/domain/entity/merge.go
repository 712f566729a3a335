package entity

import "github.com/google/uuid"

// AccountMetadata is what the account provisioning collaborator supplies for a new account.
type AccountMetadata struct {
	UserID   uuid.UUID
	FullName string
}

// MergeOutcome describes what the merge engine did for a provisioned account.
type MergeOutcome string

const (
	// MergeOutcomeMerged means a shadow profile was migrated onto the new account.
	MergeOutcomeMerged MergeOutcome = "MERGED"
	// MergeOutcomeNoShadow means no profile exists for the email; ordinary signup applies.
	MergeOutcomeNoShadow MergeOutcome = "NO_SHADOW"
	// MergeOutcomeAlreadyReal means the existing profile is already a real account.
	MergeOutcomeAlreadyReal MergeOutcome = "ALREADY_REAL"
)
