package errors

import (
	"context"
	"testing"

	"lessonsync/internal/errors"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestBaseError_WithDetailsStillMatches(t *testing.T) {
	err := errors.Wrap(ErrAmbiguousIdentity.WithDetails("2 candidates"), "resolve")

	assert.True(t, errors.Is(err, ErrAmbiguousIdentity))
	assert.False(t, errors.Is(err, ErrProfileNotFound))

	var appErr AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AMBIGUOUS_IDENTITY", appErr.ErrorCode())
	assert.Equal(t, "2 candidates", appErr.Details())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: errors.Wrap(context.DeadlineExceeded, "fetch"), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "calendar unavailable", err: ErrCalendarUnavailable.WrapMessage("503"), want: true},
		{name: "database", err: NewDatabaseExecuteError(errors.New("conn reset"), "insert"), want: true},
		{name: "net timeout", err: errors.Wrap(timeoutErr{}, "dial"), want: true},
		{name: "duplicate email", err: ErrProfileAlreadyExists.WrapMessage("insert"), want: false},
		{name: "ambiguous", err: ErrAmbiguousIdentity, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
