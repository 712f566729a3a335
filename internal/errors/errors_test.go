package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = New("sentinel")

func TestWrap_PreservesIsAndCause(t *testing.T) {
	wrapped := Wrapf(Wrap(errSentinel, "inner"), "outer %d", 1)

	assert.True(t, Is(wrapped, errSentinel))
	assert.Equal(t, errSentinel, Cause(wrapped))
	assert.Equal(t, "outer 1: inner: sentinel", wrapped.Error())
	assert.Contains(t, fmt.Sprintf("%+v", wrapped), "errors_test.go")
}

func TestJoin_MatchesEachBranch(t *testing.T) {
	other := New("other")
	joined := Join(errSentinel, other)

	assert.True(t, Is(joined, errSentinel))
	assert.True(t, Is(joined, other))
}

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestAsType_FindsWrappedTarget(t *testing.T) {
	wrapped := Wrap(&codedError{code: 7}, "lookup")

	found, ok := AsType[*codedError](wrapped)
	assert.True(t, ok)
	assert.Equal(t, 7, found.code)

	_, ok = AsType[*codedError](errSentinel)
	assert.False(t, ok)
}
