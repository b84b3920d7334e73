/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry go-playground/validator struct tags; handlers run
  them through a shared validator instance before touching domain logic.
  Numeric range checks on percentages are NOT done here - the calculator
  owns them, so the domain stays the single source of truth.

MONEY:
  Amounts cross the wire as JSON numbers and are converted to decimals at
  the handler boundary (with NaN/Inf rejection). Responses render decimals
  as strings to avoid telling clients to do float math on currency.

SEE ALSO:
  - handlers.go: Uses these types
  - incentive/types.go: Domain model these map to/from
*/
package api

import (
	"time"

	"github.com/leadflow/incentive-engine/incentive"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ActorDTO identifies the caller of a workflow operation.
type ActorDTO struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
	Role string `json:"role" validate:"required,oneof=reviewer recipient system"`
}

// CreateRecordRequest seeds a new incentive record at status pending.
type CreateRecordRequest struct {
	LeadID              string   `json:"lead_id" validate:"required"`
	Currency            string   `json:"currency,omitempty"`
	GrossIncomeReceived float64  `json:"gross_income_received"`
	IntercityDeal       bool     `json:"intercity_deal"`
	IntercityAmount     *float64 `json:"intercity_amount,omitempty"`
	ReferralAmount      float64  `json:"referral_amount"`
	Expenses            float64  `json:"expenses"`
	Goodwill            float64  `json:"goodwill"`
}

// SubmitReviewRequest proposes share/tax percentages for a record.
type SubmitReviewRequest struct {
	SharePercent float64  `json:"share_percent"`
	TaxPercent   float64  `json:"tax_percent"`
	Remark       string   `json:"remark,omitempty"`
	Actor        ActorDTO `json:"actor" validate:"required"`
	Version      int64    `json:"version,omitempty"` // caller's last-read version; 0 = skip the fast-fail check
}

// TransitionRequest covers the pure status-change operations.
type TransitionRequest struct {
	Actor   ActorDTO `json:"actor" validate:"required"`
	Version int64    `json:"version,omitempty"`
}

// AppendRemarkRequest adds a note to a record's audit trail.
type AppendRemarkRequest struct {
	Text    string   `json:"text" validate:"required"`
	Actor   ActorDTO `json:"actor" validate:"required"`
	Version int64    `json:"version,omitempty"`
}

// LoadScenarioRequest selects a demo scenario to seed.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RecordDTO represents an incentive record in API responses.
type RecordDTO struct {
	ID                  string      `json:"id"`
	LeadID              string      `json:"lead_id"`
	Currency            string      `json:"currency"`
	GrossIncomeReceived string      `json:"gross_income_received"`
	IntercityDeal       bool        `json:"intercity_deal"`
	IntercityAmount     *string     `json:"intercity_amount,omitempty"`
	ReferralAmount      string      `json:"referral_amount"`
	Expenses            string      `json:"expenses"`
	Goodwill            string      `json:"goodwill"`
	ShareAmount         *string     `json:"share_amount,omitempty"`
	TaxDeducted         *string     `json:"tax_deducted,omitempty"`
	FinalPayable        *string     `json:"final_payable,omitempty"`
	Status              string      `json:"status"`
	Version             int64       `json:"version"`
	Remarks             []RemarkDTO `json:"remarks"`
	CreatedAt           string      `json:"created_at"`
	UpdatedAt           string      `json:"updated_at"`
}

// RemarkDTO represents one audit-trail entry.
type RemarkDTO struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	AuthorName string  `json:"author_name"`
	AuthorID   *string `json:"author_id,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // invalid_input | invalid_transition | forbidden | conflict | not_found
	Status  string `json:"status,omitempty"`  // current record status, set for invalid_transition
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toRecordDTO(rec *incentive.IncentiveRecord) RecordDTO {
	dto := RecordDTO{
		ID:                  string(rec.ID),
		LeadID:              string(rec.LeadID),
		Currency:            string(rec.GrossIncomeReceived.Currency),
		GrossIncomeReceived: rec.GrossIncomeReceived.Value.String(),
		IntercityDeal:       rec.IntercityDeal,
		IntercityAmount:     moneyString(rec.IntercityAmount),
		ReferralAmount:      rec.ReferralAmount.Value.String(),
		Expenses:            rec.Expenses.Value.String(),
		Goodwill:            rec.Goodwill.Value.String(),
		ShareAmount:         moneyString(rec.ShareAmount),
		TaxDeducted:         moneyString(rec.TaxDeducted),
		FinalPayable:        moneyString(rec.FinalPayable),
		Status:              string(rec.Status),
		Version:             rec.Version,
		Remarks:             make([]RemarkDTO, len(rec.Remarks)),
		CreatedAt:           rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           rec.UpdatedAt.Format(time.RFC3339),
	}
	for i, rm := range rec.Remarks {
		dto.Remarks[i] = toRemarkDTO(rm)
	}
	return dto
}

func toRemarkDTO(rm incentive.Remark) RemarkDTO {
	return RemarkDTO{
		ID:         rm.ID,
		Text:       rm.Text,
		AuthorName: rm.AuthorName,
		AuthorID:   rm.AuthorID,
		CreatedAt:  rm.CreatedAt.Format(time.RFC3339),
	}
}

func moneyString(m *incentive.Money) *string {
	if m == nil {
		return nil
	}
	s := m.Value.String()
	return &s
}

func (a ActorDTO) toDomain() incentive.Actor {
	return incentive.Actor{
		ID:   a.ID,
		Name: a.Name,
		Role: incentive.Role(a.Role),
	}
}
