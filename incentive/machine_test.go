package incentive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/incentive-engine/incentive"
)

var allStatuses = []incentive.Status{
	incentive.StatusPending,
	incentive.StatusCorrection,
	incentive.StatusAcceptedByRecipient,
	incentive.StatusAccepted,
	incentive.StatusPaymentConfirmation,
	incentive.StatusCompleted,
}

var allOps = []incentive.Operation{
	incentive.OpSubmitReview,
	incentive.OpAcceptByRecipient,
	incentive.OpAccept,
	incentive.OpSendForPayment,
	incentive.OpMarkCompleted,
}

// legal enumerates the full transition table: (from, op) -> to.
var legal = map[incentive.Status]map[incentive.Operation]incentive.Status{
	incentive.StatusPending: {
		incentive.OpSubmitReview: incentive.StatusCorrection,
	},
	incentive.StatusCorrection: {
		incentive.OpSubmitReview:      incentive.StatusCorrection,
		incentive.OpAcceptByRecipient: incentive.StatusAcceptedByRecipient,
	},
	incentive.StatusAcceptedByRecipient: {
		incentive.OpAccept: incentive.StatusAccepted,
	},
	incentive.StatusAccepted: {
		incentive.OpSendForPayment: incentive.StatusPaymentConfirmation,
	},
	incentive.StatusPaymentConfirmation: {
		incentive.OpMarkCompleted: incentive.StatusCompleted,
	},
	incentive.StatusCompleted: {},
}

func TestNextStatus_LegalTransitions(t *testing.T) {
	for from, ops := range legal {
		for op, want := range ops {
			got, err := incentive.NextStatus(from, op, incentive.RequiredRole(op))
			require.NoError(t, err, "%s from %s", op, from)
			assert.Equal(t, want, got, "%s from %s", op, from)
		}
	}
}

func TestNextStatus_EveryOtherPairRejected(t *testing.T) {
	// Every (state, operation) pair not in the table fails with
	// ErrInvalidTransition, even when the role is right.
	for _, from := range allStatuses {
		for _, op := range allOps {
			if _, ok := legal[from][op]; ok {
				continue
			}
			_, err := incentive.NextStatus(from, op, incentive.RequiredRole(op))
			require.Error(t, err, "%s from %s should be rejected", op, from)
			assert.ErrorIs(t, err, incentive.ErrInvalidTransition, "%s from %s", op, from)

			var te *incentive.TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, from, te.From)
		}
	}
}

func TestNextStatus_RoleCheckedBeforeState(t *testing.T) {
	// Wrong role from a legal state: Forbidden, not InvalidTransition.
	_, err := incentive.NextStatus(incentive.StatusCorrection, incentive.OpAcceptByRecipient, incentive.RoleReviewer)
	require.Error(t, err)
	assert.ErrorIs(t, err, incentive.ErrForbidden)

	// Wrong role from an illegal state: still Forbidden (authorization first).
	_, err = incentive.NextStatus(incentive.StatusPending, incentive.OpAccept, incentive.RoleRecipient)
	require.Error(t, err)
	assert.ErrorIs(t, err, incentive.ErrForbidden)

	var fe *incentive.ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, incentive.RoleReviewer, fe.Required)
	assert.Equal(t, incentive.RoleRecipient, fe.Role)
}

func TestNextStatus_RequiredRoles(t *testing.T) {
	assert.Equal(t, incentive.RoleReviewer, incentive.RequiredRole(incentive.OpSubmitReview))
	assert.Equal(t, incentive.RoleRecipient, incentive.RequiredRole(incentive.OpAcceptByRecipient))
	assert.Equal(t, incentive.RoleReviewer, incentive.RequiredRole(incentive.OpAccept))
	assert.Equal(t, incentive.RoleReviewer, incentive.RequiredRole(incentive.OpSendForPayment))
	assert.Equal(t, incentive.RoleSystem, incentive.RequiredRole(incentive.OpMarkCompleted))
}

func TestNextStatus_UnknownOperation(t *testing.T) {
	_, err := incentive.NextStatus(incentive.StatusPending, incentive.Operation("teleport"), incentive.RoleReviewer)
	require.Error(t, err)
	assert.ErrorIs(t, err, incentive.ErrInvalidInput)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, incentive.IsTerminal(incentive.StatusCompleted))
	for _, s := range allStatuses[:len(allStatuses)-1] {
		assert.False(t, incentive.IsTerminal(s), "%s", s)
	}
}
