package checkout

import (
	"testing"

	"savora-be/internal/cart"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *Session {
	return newSession(cart.UserOwner(1), uuid.New(), "ORD-1", "dana@example.com")
}

func TestSession_Transitions(t *testing.T) {
	t.Run("IdleToAwaiting", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())
		assert.Equal(t, StateAwaitingPayment, s.State())
	})

	t.Run("AwaitIsIdempotent", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())
		require.NoError(t, s.await())
		assert.Equal(t, StateAwaitingPayment, s.State())
	})

	t.Run("FailedToAwaitingOnRetry", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())
		require.NoError(t, s.fail("card declined"))
		assert.Equal(t, "card declined", s.FailureMessage())

		require.NoError(t, s.await())
		assert.Equal(t, StateAwaitingPayment, s.State())
		assert.Empty(t, s.FailureMessage(), "retry clears the previous failure")
	})

	t.Run("SucceedRequiresAnAttempt", func(t *testing.T) {
		s := testSession()
		_, err := s.succeed()
		assert.ErrorIs(t, err, ErrInvalidTransition)

		require.NoError(t, s.await())
		first, err := s.succeed()
		require.NoError(t, err)
		assert.True(t, first)
	})

	t.Run("LateSuccessOverridesFailure", func(t *testing.T) {
		// The webhook can report a failure, then the processor settles the
		// same payment as paid. Paid wins.
		s := testSession()
		require.NoError(t, s.await())
		require.NoError(t, s.fail("card declined"))

		first, err := s.succeed()
		require.NoError(t, err)
		assert.True(t, first, "recovery from failed still runs the success side effects")
		assert.Equal(t, StateSucceeded, s.State())
		assert.Empty(t, s.FailureMessage())
	})

	t.Run("SucceedIsIdempotent", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())

		first, err := s.succeed()
		require.NoError(t, err)
		assert.True(t, first)

		again, err := s.succeed()
		require.NoError(t, err)
		assert.False(t, again, "second confirmation must not repeat side effects")
	})

	t.Run("FailOnlyFromAwaiting", func(t *testing.T) {
		s := testSession()
		assert.ErrorIs(t, s.fail("nope"), ErrInvalidTransition)

		require.NoError(t, s.await())
		_, err := s.succeed()
		require.NoError(t, err)
		assert.ErrorIs(t, s.fail("late failure"), ErrInvalidTransition)
	})
}

func TestSession_ShouldRedirectFromCheckout(t *testing.T) {
	t.Run("IdleFollowsCartEmptiness", func(t *testing.T) {
		s := testSession()
		assert.True(t, s.ShouldRedirectFromCheckout(true))
		assert.False(t, s.ShouldRedirectFromCheckout(false))
	})

	t.Run("AwaitingPinsTheView", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())
		assert.False(t, s.ShouldRedirectFromCheckout(true))
	})

	t.Run("SucceededKeepsConfirmationVisible", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())
		_, err := s.succeed()
		require.NoError(t, err)

		// The cart was just cleared; the user stays on the confirmation.
		assert.False(t, s.ShouldRedirectFromCheckout(true))
	})

	t.Run("FailedFollowsCartEmptiness", func(t *testing.T) {
		s := testSession()
		require.NoError(t, s.await())
		require.NoError(t, s.fail("expired"))
		assert.True(t, s.ShouldRedirectFromCheckout(true))
		assert.False(t, s.ShouldRedirectFromCheckout(false))
	})
}

func TestSession_RealtimeSuspended(t *testing.T) {
	s := testSession()
	assert.False(t, s.RealtimeSuspended())

	require.NoError(t, s.await())
	assert.True(t, s.RealtimeSuspended())

	_, err := s.succeed()
	require.NoError(t, err)
	assert.True(t, s.RealtimeSuspended())
}
