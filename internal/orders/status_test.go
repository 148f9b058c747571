package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
)

func TestTerminalStatuses(t *testing.T) {
	for _, s := range AllStatuses {
		want := s == StatusDelivered || s == StatusCompleted || s == StatusCancelled
		assert.Equal(t, want, s.Terminal(), s)
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range AllStatuses {
		if !from.Terminal() {
			continue
		}
		for _, to := range AllStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStrictMachineCoversProcessingPath(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("  shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("")
	assert.True(t, errors.Is(err, apperr.ErrInvalidStatus))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy("LENIENT")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	_, err = ParsePolicy("chaos")
	assert.Error(t, err)
}

func TestPolicyCheck(t *testing.T) {
	assert.NoError(t, PolicyStrict.Check(StatusPending, StatusPaid))
	assert.True(t, errors.Is(PolicyStrict.Check(StatusPending, StatusDelivered), apperr.ErrInvalidTransition))
	assert.True(t, errors.Is(PolicyStrict.Check(StatusCancelled, StatusPending), apperr.ErrInvalidTransition))

	assert.NoError(t, PolicyLenient.Check(StatusPending, StatusDelivered))
	assert.NoError(t, PolicyLenient.Check(StatusPaid, StatusPaid))
	assert.True(t, errors.Is(PolicyLenient.Check(StatusCancelled, StatusPending), apperr.ErrTerminalState))

	assert.True(t, errors.Is(PolicyLenient.Check(StatusPending, Status("X")), apperr.ErrInvalidStatus))
}

func TestEnvelopeRoundTripsOrderID(t *testing.T) {
	ev, err := NewEnvelope(EventOrderPlaced, "svc", "req-1", 42, OrderPlacedPayload{OrderID: 42})
	require.NoError(t, err)
	id, err := ev.OrderID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, []byte("42"), PartitionKey(42))
	assert.Equal(t, 1, ev.EventVersion)
}
