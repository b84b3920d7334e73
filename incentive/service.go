/*
service.go - Workflow operations over incentive records

PURPOSE:
  WorkflowService is the function-level contract the surrounding application
  calls. Every mutating operation follows the same shape:

    1. Load the record (ErrNotFound if missing)
    2. Check the caller's role (ErrForbidden)
    3. Check the transition is legal from the current status (ErrInvalidTransition)
    4. Mutate a clone of the record
    5. Compare-and-swap the clone into the store (ErrConflict)

  Steps 2-4 never touch the stored record, so any failure leaves it exactly
  as it was. The service never retries on its own; retry-on-conflict is a
  caller decision.

VERSIONS:
  Callers that did a read-before-write pass the version they read as
  expectedVersion; a mismatch with the freshly loaded record fails fast with
  ErrConflict before any work is done. Passing 0 means "against whatever is
  current", with the store-level CAS still guarding concurrent writers.

SEE ALSO:
  - machine.go: Transition table consulted in step 3
  - calc.go:    Derivation run inside SubmitReview
*/
package incentive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock returns the current time. Swapped in tests for determinism.
type Clock func() time.Time

// WorkflowService exposes the incentive lifecycle operations.
type WorkflowService struct {
	Store RecordStore
	Now   Clock
}

func NewWorkflowService(store RecordStore) *WorkflowService {
	return &WorkflowService{Store: store, Now: time.Now}
}

// =============================================================================
// READS
// =============================================================================

// GetRecord returns the incentive record for a lead.
func (s *WorkflowService) GetRecord(ctx context.Context, leadID LeadID) (*IncentiveRecord, error) {
	return s.Store.Get(ctx, leadID)
}

// ListRecords returns all incentive records.
func (s *WorkflowService) ListRecords(ctx context.Context) ([]*IncentiveRecord, error) {
	return s.Store.List(ctx)
}

// =============================================================================
// RECORD CREATION
// =============================================================================

// NewRecordParams carries the immutable fields set at record creation.
type NewRecordParams struct {
	LeadID              LeadID
	GrossIncomeReceived Money
	IntercityDeal       bool
	IntercityAmount     *Money
	ReferralAmount      Money
	Expenses            Money
	Goodwill            Money
}

// CreateRecord seeds a new record at status pending. Creation is the
// surrounding application's duty; the lifecycle operations below assume the
// record already exists.
func (s *WorkflowService) CreateRecord(ctx context.Context, p NewRecordParams) (*IncentiveRecord, error) {
	if p.LeadID == "" {
		return nil, &InputError{Field: "leadId", Reason: "must not be empty"}
	}
	if p.GrossIncomeReceived.IsNegative() {
		return nil, &InputError{Field: "grossIncomeReceived", Reason: "must not be negative"}
	}
	if p.IntercityDeal && p.IntercityAmount == nil {
		return nil, &InputError{Field: "intercityAmount", Reason: "required for intercity deals"}
	}
	if p.IntercityAmount != nil && p.IntercityAmount.IsNegative() {
		return nil, &InputError{Field: "intercityAmount", Reason: "must not be negative"}
	}

	now := s.Now()
	rec := &IncentiveRecord{
		ID:                  RecordID(uuid.NewString()),
		LeadID:              p.LeadID,
		GrossIncomeReceived: p.GrossIncomeReceived,
		IntercityDeal:       p.IntercityDeal,
		IntercityAmount:     cloneMoney(p.IntercityAmount),
		ReferralAmount:      p.ReferralAmount,
		Expenses:            p.Expenses,
		Goodwill:            p.Goodwill,
		Status:              StatusPending,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// SubmitReview runs the calculator against the record's intercity base and
// moves the record to correction. It is the only operation that mutates the
// derived money fields, and it may fire repeatedly while the Recipient has
// not yet accepted.
func (s *WorkflowService) SubmitReview(
	ctx context.Context,
	leadID LeadID,
	sharePercent, taxPercent decimal.Decimal,
	remark string,
	actor Actor,
	expectedVersion int64,
) (*IncentiveRecord, error) {
	return s.transition(ctx, leadID, OpSubmitReview, actor, expectedVersion, func(rec *IncentiveRecord, now time.Time) error {
		if !rec.IntercityDeal || rec.IntercityAmount == nil {
			return &InputError{Field: "intercityAmount", Reason: "record has no intercity base amount"}
		}
		breakdown, err := ComputeShare(*rec.IntercityAmount, sharePercent, taxPercent)
		if err != nil {
			return err
		}
		rec.ShareAmount = &breakdown.ShareAmount
		rec.TaxDeducted = &breakdown.TaxDeducted
		rec.FinalPayable = &breakdown.FinalPayable

		if remark != "" {
			return rec.appendRemark(uuid.NewString(), remark, actor, now)
		}
		return nil
	})
}

// AcceptByRecipient records the Recipient's agreement with the proposed
// numbers. Pure status change.
func (s *WorkflowService) AcceptByRecipient(ctx context.Context, leadID LeadID, actor Actor, expectedVersion int64) (*IncentiveRecord, error) {
	return s.transition(ctx, leadID, OpAcceptByRecipient, actor, expectedVersion, nil)
}

// Accept records the Reviewer's final confirmation after the Recipient has
// accepted. Pure status change.
func (s *WorkflowService) Accept(ctx context.Context, leadID LeadID, actor Actor, expectedVersion int64) (*IncentiveRecord, error) {
	return s.transition(ctx, leadID, OpAccept, actor, expectedVersion, nil)
}

// SendForPayment hands the agreed record to the payment pipeline. Pure
// status change.
func (s *WorkflowService) SendForPayment(ctx context.Context, leadID LeadID, actor Actor, expectedVersion int64) (*IncentiveRecord, error) {
	return s.transition(ctx, leadID, OpSendForPayment, actor, expectedVersion, nil)
}

// MarkCompleted is invoked by the external payment system once payout is
// confirmed. Terminal; no further transitions exist.
func (s *WorkflowService) MarkCompleted(ctx context.Context, leadID LeadID, actor Actor, expectedVersion int64) (*IncentiveRecord, error) {
	return s.transition(ctx, leadID, OpMarkCompleted, actor, expectedVersion, nil)
}

// AppendRemark adds a note to the record's audit trail without changing
// status or money fields. Any role may comment.
func (s *WorkflowService) AppendRemark(ctx context.Context, leadID LeadID, text string, actor Actor, expectedVersion int64) (*IncentiveRecord, error) {
	rec, err := s.load(ctx, leadID, expectedVersion)
	if err != nil {
		return nil, err
	}

	next := rec.Clone()
	now := s.Now()
	if err := next.appendRemark(uuid.NewString(), text, actor, now); err != nil {
		return nil, err
	}
	return s.commit(ctx, next, rec.Version, now)
}

// =============================================================================
// INTERNALS
// =============================================================================

// mutator applies operation-specific changes to a cloned record before commit.
type mutator func(rec *IncentiveRecord, now time.Time) error

func (s *WorkflowService) transition(
	ctx context.Context,
	leadID LeadID,
	op Operation,
	actor Actor,
	expectedVersion int64,
	mutate mutator,
) (*IncentiveRecord, error) {
	rec, err := s.load(ctx, leadID, expectedVersion)
	if err != nil {
		return nil, err
	}

	nextStatus, err := NextStatus(rec.Status, op, actor.Role)
	if err != nil {
		return nil, err
	}

	next := rec.Clone()
	now := s.Now()
	if mutate != nil {
		if err := mutate(next, now); err != nil {
			return nil, err
		}
	}
	next.Status = nextStatus
	return s.commit(ctx, next, rec.Version, now)
}

func (s *WorkflowService) load(ctx context.Context, leadID LeadID, expectedVersion int64) (*IncentiveRecord, error) {
	rec, err := s.Store.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	// Fail fast when the caller's read is already stale.
	if expectedVersion != 0 && rec.Version != expectedVersion {
		return nil, ErrConflict
	}
	return rec, nil
}

func (s *WorkflowService) commit(ctx context.Context, next *IncentiveRecord, loadedVersion int64, now time.Time) (*IncentiveRecord, error) {
	next.UpdatedAt = now
	next.Version = loadedVersion + 1
	if err := s.Store.Update(ctx, next, loadedVersion); err != nil {
		return nil, err
	}
	return next, nil
}
