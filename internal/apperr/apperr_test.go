package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Validation, KindOf(New(Validation, "bad input")))
	assert.Equal(t, NotFound, KindOf(Newf(NotFound, "club %d", 42)))
	assert.Equal(t, Conflict, KindOf(SlotConflict("taken", []uint64{1})))

	// Errors from outside the package default to Internal.
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestKindOfWrappedChain(t *testing.T) {
	inner := New(Conflict, "slot taken")
	outer := fmt.Errorf("booking failed: %w", inner)
	assert.Equal(t, Conflict, KindOf(outer))
	assert.True(t, IsKind(outer, Conflict))
	assert.False(t, IsKind(outer, NotFound))
}

func TestWrapNilCause(t *testing.T) {
	assert.Nil(t, Wrap(Internal, "query", nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Internal, "lock slots", cause)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "lock slots")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSlotConflictCarriesIDs(t *testing.T) {
	err := SlotConflict("unavailable", []uint64{3, 9})
	var ae *Error
	require.True(t, errors.As(error(err), &ae))
	assert.Equal(t, []uint64{3, 9}, ae.SlotIDs)
	assert.Equal(t, Conflict, ae.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation", Validation.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "internal", Internal.String())
}
