package impl

import (
	"strings"

	"lessonsync/internal/domain/entity"
)

// displayNameArtifact is prepended to some names by the calendar integration.
const displayNameArtifact = "$$$"

// ExtractAttendee picks the student among the attendees: the first one whose email differs from
// the organizer's, or the first attendee when all of them are the organizer. It reports false for
// an empty list.
func ExtractAttendee(attendees []entity.Attendee, organizerEmail string) (entity.Attendee, bool) {
	if len(attendees) == 0 {
		return entity.Attendee{}, false
	}

	organizer := entity.NormalizeEmail(organizerEmail)
	picked := attendees[0]
	for _, attendee := range attendees {
		if entity.NormalizeEmail(attendee.Email) != organizer {
			picked = attendee

			break
		}
	}

	return entity.Attendee{
		Email:       strings.TrimSpace(picked.Email),
		DisplayName: CleanDisplayName(picked.DisplayName),
	}, true
}

// CleanDisplayName strips the integration artifact and surrounding whitespace.
func CleanDisplayName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, displayNameArtifact, ""))
}

// SplitDisplayName returns the first token as first name and the rest as last name. An empty
// name falls back to the email local part as first name.
func SplitDisplayName(displayName, email string) (firstName, lastName string) {
	fields := strings.Fields(CleanDisplayName(displayName))
	if len(fields) == 0 {
		return entity.EmailLocalPart(email), ""
	}

	return fields[0], strings.Join(fields[1:], " ")
}
