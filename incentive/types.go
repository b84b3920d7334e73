/*
Package incentive implements the incentive record lifecycle for lead payouts.

PURPOSE:
  This package contains the domain model and algorithms for the two-party
  incentive review workflow: a Reviewer proposes share/tax percentages against
  a deal's intercity base amount, a Recipient accepts the proposed numbers, and
  payment is confirmed by an external system. The package owns the status
  state machine, the derived-money calculator, and the append-only remark log.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal (no float drift)
  - Status: Lifecycle stage of an incentive record
  - Role/Actor: Who is calling, used to gate transitions
  - IncentiveRecord: The one record per lead that the workflow mutates
  - Remark: A single append-only audit note

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money is touched
  2. Forward-only: status never moves backwards through the lifecycle
  3. Append-only: remarks are never edited, reordered, or removed
  4. Atomicity: every mutation lands fully or not at all (version CAS)

SEE ALSO:
  - calc.go:    Share/tax/payable derivation
  - machine.go: Status transition table and role gating
  - service.go: The workflow operations exposed to callers
*/
package incentive

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount
// =============================================================================

type Currency string

const (
	CurrencyINR Currency = "INR"
)

// Money is an exact currency amount. The zero value is 0 with no currency;
// records normally carry CurrencyINR throughout.
type Money struct {
	Value    decimal.Decimal
	Currency Currency
}

func NewMoney(value float64, currency Currency) Money {
	return Money{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewMoneyFromInt(value int64, currency Currency) Money {
	return Money{Value: decimal.NewFromInt(value), Currency: currency}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (m Money) Zero() Money                 { return Money{Value: decimal.Zero, Currency: m.Currency} }
func (m Money) Add(b Money) Money           { return Money{Value: m.Value.Add(b.Value), Currency: m.Currency} }
func (m Money) Sub(b Money) Money           { return Money{Value: m.Value.Sub(b.Value), Currency: m.Currency} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s), Currency: m.Currency} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s), Currency: m.Currency} }
func (m Money) IsNegative() bool            { return m.Value.IsNegative() }
func (m Money) IsZero() bool                { return m.Value.IsZero() }
func (m Money) Equal(b Money) bool          { return m.Value.Equal(b.Value) }

// Round returns the amount rounded half-to-even at the given number of
// decimal places. Used once per derived field so repeated corrections do not
// accumulate drift.
func (m Money) Round(places int32) Money {
	return Money{Value: m.Value.RoundBank(places), Currency: m.Currency}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RecordID string
type LeadID string

// =============================================================================
// ROLES AND ACTORS
// =============================================================================

type Role string

const (
	// RoleReviewer proposes percentages and green-lights payment.
	RoleReviewer Role = "reviewer"
	// RoleRecipient is being paid and must accept the proposed numbers.
	RoleRecipient Role = "recipient"
	// RoleSystem is the external payment system confirming completion.
	RoleSystem Role = "system"
)

// Actor identifies the caller of a workflow operation. ID may be empty for
// external callers that only carry a display name.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// =============================================================================
// STATUS - Lifecycle stage
// =============================================================================

type Status string

const (
	StatusPending             Status = "pending"
	StatusCorrection          Status = "correction"
	StatusAcceptedByRecipient Status = "accepted_by_recipient"
	StatusAccepted            Status = "accepted"
	StatusPaymentConfirmation Status = "payment_confirmation"
	StatusCompleted           Status = "completed"
)

// ValidStatus reports whether s is one of the defined lifecycle stages.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCorrection, StatusAcceptedByRecipient,
		StatusAccepted, StatusPaymentConfirmation, StatusCompleted:
		return true
	}
	return false
}

// =============================================================================
// REMARK - Append-only audit note
// =============================================================================

type Remark struct {
	ID         string
	Text       string
	AuthorName string
	AuthorID   *string // nil for external/system authors
	CreatedAt  time.Time
}

// =============================================================================
// INCENTIVE RECORD
// =============================================================================

// IncentiveRecord is the single record per lead that the workflow operates on.
//
// INVARIANTS:
//   - ShareAmount, TaxDeducted, FinalPayable are all nil or all set.
//   - FinalPayable = ShareAmount - TaxDeducted exactly once set.
//   - Status only moves through the transitions in machine.go.
//   - Remarks is append-only; insertion order is significant.
type IncentiveRecord struct {
	ID     RecordID
	LeadID LeadID

	GrossIncomeReceived Money
	IntercityDeal       bool
	IntercityAmount     *Money // required when IntercityDeal, base for the share calc
	ReferralAmount      Money
	Expenses            Money
	Goodwill            Money

	// Derived by the calculator on submitReview; nil until first computed.
	ShareAmount  *Money
	TaxDeducted  *Money
	FinalPayable *Money

	Status  Status
	Remarks []Remark

	// Version is bumped on every successful mutation; the store rejects
	// updates whose expected version is stale (optimistic concurrency).
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy. Services mutate clones so a failed update never
// leaks partial state into shared record values.
func (r *IncentiveRecord) Clone() *IncentiveRecord {
	cp := *r
	cp.IntercityAmount = cloneMoney(r.IntercityAmount)
	cp.ShareAmount = cloneMoney(r.ShareAmount)
	cp.TaxDeducted = cloneMoney(r.TaxDeducted)
	cp.FinalPayable = cloneMoney(r.FinalPayable)
	cp.Remarks = make([]Remark, len(r.Remarks))
	copy(cp.Remarks, r.Remarks)
	for i := range cp.Remarks {
		if r.Remarks[i].AuthorID != nil {
			id := *r.Remarks[i].AuthorID
			cp.Remarks[i].AuthorID = &id
		}
	}
	return &cp
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

// HasDerivedAmounts reports whether the derived money triple is set.
// The triple is computed together; a partially set triple is a bug.
func (r *IncentiveRecord) HasDerivedAmounts() bool {
	return r.ShareAmount != nil && r.TaxDeducted != nil && r.FinalPayable != nil
}

// appendRemark validates and appends a remark entry. Empty text after
// trimming is rejected; prior entries are never touched.
func (r *IncentiveRecord) appendRemark(id, text string, author Actor, at time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &InputError{Field: "remark", Reason: "text is empty"}
	}
	var authorID *string
	if author.ID != "" {
		aid := author.ID
		authorID = &aid
	}
	r.Remarks = append(r.Remarks, Remark{
		ID:         id,
		Text:       text,
		AuthorName: author.Name,
		AuthorID:   authorID,
		CreatedAt:  at,
	})
	return nil
}
