/*
machine.go - Status transition table and role gating

PURPOSE:
  The incentive lifecycle is a forward-only state machine negotiated between
  two parties. The Reviewer proposes numbers (repeatedly, while the record
  sits in correction), the Recipient accepts, the Reviewer confirms and sends
  for payment, and an external payment system marks completion. Neither party
  can unilaterally finalize a payable amount.

LIFECYCLE:

  pending ──submitReview──▶ correction ⟲ submitReview (iterate)
                                │
                        acceptByRecipient (Recipient)
                                ▼
                      accepted_by_recipient
                                │
                             accept (Reviewer)
                                ▼
                            accepted
                                │
                        sendForPayment (Reviewer)
                                ▼
                      payment_confirmation
                                │
                          markCompleted (external system)
                                ▼
                            completed   [terminal]

GATING ORDER:
  Authorization is checked before transition legality: a caller with the
  wrong role gets ErrForbidden even if the record happens to be in a status
  where the operation would otherwise apply.

SEE ALSO:
  - service.go: Applies transitions and persists the result atomically
*/
package incentive

// Operation names a workflow transition request.
type Operation string

const (
	OpSubmitReview      Operation = "submitReview"
	OpAcceptByRecipient Operation = "acceptByRecipient"
	OpAccept            Operation = "accept"
	OpSendForPayment    Operation = "sendForPayment"
	OpMarkCompleted     Operation = "markCompleted"
)

// transitionRule describes one row group of the transition table: which
// statuses an operation may fire from, where it lands, and who may call it.
type transitionRule struct {
	from []Status
	to   Status
	role Role
}

var transitions = map[Operation]transitionRule{
	OpSubmitReview: {
		from: []Status{StatusPending, StatusCorrection},
		to:   StatusCorrection,
		role: RoleReviewer,
	},
	OpAcceptByRecipient: {
		from: []Status{StatusCorrection},
		to:   StatusAcceptedByRecipient,
		role: RoleRecipient,
	},
	OpAccept: {
		from: []Status{StatusAcceptedByRecipient},
		to:   StatusAccepted,
		role: RoleReviewer,
	},
	OpSendForPayment: {
		from: []Status{StatusAccepted},
		to:   StatusPaymentConfirmation,
		role: RoleReviewer,
	},
	OpMarkCompleted: {
		from: []Status{StatusPaymentConfirmation},
		to:   StatusCompleted,
		role: RoleSystem,
	},
}

// RequiredRole returns the role allowed to invoke op. Unknown operations
// return an empty role.
func RequiredRole(op Operation) Role {
	return transitions[op].role
}

// NextStatus validates op against the current status and the actor's role,
// returning the status the record moves to. The record itself is untouched;
// callers apply the result. Role is checked first.
func NextStatus(current Status, op Operation, role Role) (Status, error) {
	rule, ok := transitions[op]
	if !ok {
		return "", &InputError{Field: "operation", Reason: "unknown operation " + string(op)}
	}
	if role != rule.role {
		return "", &ForbiddenError{Op: op, Role: role, Required: rule.role}
	}
	for _, s := range rule.from {
		if s == current {
			return rule.to, nil
		}
	}
	return "", &TransitionError{Op: op, From: current}
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return s == StatusCompleted
}
