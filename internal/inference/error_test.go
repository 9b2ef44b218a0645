package inference

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(KindFetch, "fetch", nil))

	base := errors.New("connection reset")
	err := Wrap(KindFetch, "fetch linear", base)

	assert.EqualError(t, err, "fetch linear: connection reset")
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindFetch, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestWrap_KeepsOriginalKind(t *testing.T) {
	shape := Shapef("predict lstm", "shape mismatch: got %d", 29)
	err := Wrap(KindRuntime, "run", fmt.Errorf("model: %w", shape))

	assert.Equal(t, KindShape, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindRuntime, KindOf(errors.New("boom")))
	assert.False(t, IsRetryable(errors.New("boom")))
}
