package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("place order: %w", Newf(KindInsufficientStock, "only %d left", 2))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindInsufficientStock, KindOf(err))
}

func TestSentinelDoesNotMatchOtherMessages(t *testing.T) {
	a := New(KindNotFound, "order not found")
	b := New(KindNotFound, "product not found")

	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, a))
}

func TestStorageWrapsDriverError(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage(cause, "insert order")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))

	assert.NoError(t, Storage(nil, "noop"))

	classified := New(KindConflict, "sku exists")
	assert.Same(t, classified, Storage(classified, "ignored"))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:          http.StatusNotFound,
		KindConflict:          http.StatusBadRequest,
		KindInvalidInput:      http.StatusBadRequest,
		KindInsufficientStock: http.StatusBadRequest,
		KindInvalidStatus:     http.StatusBadRequest,
		KindInvalidTransition: http.StatusBadRequest,
		KindTerminalState:     http.StatusBadRequest,
		KindStorage:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "x")), kind.String())
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
