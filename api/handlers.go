/*
handlers.go - HTTP API handlers for the incentive workflow

PURPOSE:
  Exposes the incentive workflow engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Records:
    GET    /api/incentives                     List all records
    POST   /api/incentives                     Create (seed) a record
    GET    /api/incentives/{leadID}            Get record with remarks
    GET    /api/incentives/{leadID}/remarks    Remark log only

  Workflow transitions:
    POST   /api/incentives/{leadID}/review               submitReview (Reviewer)
    POST   /api/incentives/{leadID}/accept-by-recipient  acceptByRecipient (Recipient)
    POST   /api/incentives/{leadID}/accept               accept (Reviewer)
    POST   /api/incentives/{leadID}/send-for-payment     sendForPayment (Reviewer)
    POST   /api/incentives/{leadID}/complete             markCompleted (payment system)
    POST   /api/incentives/{leadID}/remarks              appendRemark (any role)

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Load a demo scenario
    POST   /api/scenarios/reset                Wipe all records

ERROR HANDLING:
  Domain errors map to HTTP status + a machine-readable code:
  - 400 invalid_input        Malformed percentages/amounts/remark
  - 403 forbidden            Actor role does not match the operation
  - 404 not_found            No record for the lead
  - 409 conflict             Record changed since caller's last read
  - 409 invalid_transition   Operation illegal from current status
                             (body carries the current status so the UI
                              can refresh its view)
  - 500 everything else

SECURITY NOTE:
  The actor is trusted as declared in the request body. There is no
  authentication layer here; the engine sits behind the surrounding
  application, which owns identity.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/leadflow/incentive-engine/incentive"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Workflow *incentive.WorkflowService
	Store    incentive.RecordStore

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler around a record store.
func NewHandler(store incentive.RecordStore) *Handler {
	return &Handler{
		Workflow: incentive.NewWorkflowService(store),
		Store:    store,
		validate: validator.New(),
	}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ListRecords returns all incentive records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Workflow.ListRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRecord returns the record for a lead, including its remark log.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	leadID := incentive.LeadID(chi.URLParam(r, "leadID"))

	rec, err := h.Workflow.GetRecord(r.Context(), leadID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// GetRemarks returns only the remark log for a lead.
func (h *Handler) GetRemarks(w http.ResponseWriter, r *http.Request) {
	leadID := incentive.LeadID(chi.URLParam(r, "leadID"))

	rec, err := h.Workflow.GetRecord(r.Context(), leadID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]RemarkDTO, len(rec.Remarks))
	for i, rm := range rec.Remarks {
		dtos[i] = toRemarkDTO(rm)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRecord seeds a new incentive record at status pending.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	params, err := req.toParams()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rec, err := h.Workflow.CreateRecord(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

// toParams converts the wire floats into domain money values, rejecting
// non-finite numbers at the boundary.
func (req CreateRecordRequest) toParams() (incentive.NewRecordParams, error) {
	currency := incentive.Currency(req.Currency)
	if currency == "" {
		currency = incentive.CurrencyINR
	}

	gross, err := incentive.ParseMoney("gross_income_received", req.GrossIncomeReceived, currency)
	if err != nil {
		return incentive.NewRecordParams{}, err
	}
	referral, err := incentive.ParseMoney("referral_amount", req.ReferralAmount, currency)
	if err != nil {
		return incentive.NewRecordParams{}, err
	}
	expenses, err := incentive.ParseMoney("expenses", req.Expenses, currency)
	if err != nil {
		return incentive.NewRecordParams{}, err
	}
	goodwill, err := incentive.ParseMoney("goodwill", req.Goodwill, currency)
	if err != nil {
		return incentive.NewRecordParams{}, err
	}

	var intercity *incentive.Money
	if req.IntercityAmount != nil {
		m, err := incentive.ParseMoney("intercity_amount", *req.IntercityAmount, currency)
		if err != nil {
			return incentive.NewRecordParams{}, err
		}
		intercity = &m
	}

	return incentive.NewRecordParams{
		LeadID:              incentive.LeadID(req.LeadID),
		GrossIncomeReceived: gross,
		IntercityDeal:       req.IntercityDeal,
		IntercityAmount:     intercity,
		ReferralAmount:      referral,
		Expenses:            expenses,
		Goodwill:            goodwill,
	}, nil
}

// =============================================================================
// WORKFLOW TRANSITION HANDLERS
// =============================================================================

// SubmitReview runs the calculator and moves the record to correction.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	leadID := incentive.LeadID(chi.URLParam(r, "leadID"))

	var req SubmitReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	sharePct, err := incentive.ParsePercent("share_percent", req.SharePercent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	taxPct, err := incentive.ParsePercent("tax_percent", req.TaxPercent)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rec, err := h.Workflow.SubmitReview(r.Context(), leadID, sharePct, taxPct, req.Remark, req.Actor.toDomain(), req.Version)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// AcceptByRecipient records the Recipient's agreement.
func (h *Handler) AcceptByRecipient(w http.ResponseWriter, r *http.Request) {
	h.pureTransition(w, r, h.Workflow.AcceptByRecipient)
}

// Accept records the Reviewer's final confirmation.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.pureTransition(w, r, h.Workflow.Accept)
}

// SendForPayment hands the record to the payment pipeline.
func (h *Handler) SendForPayment(w http.ResponseWriter, r *http.Request) {
	h.pureTransition(w, r, h.Workflow.SendForPayment)
}

// MarkCompleted is called by the payment system once payout lands.
func (h *Handler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	h.pureTransition(w, r, h.Workflow.MarkCompleted)
}

type transitionFunc func(ctx context.Context, leadID incentive.LeadID, actor incentive.Actor, expectedVersion int64) (*incentive.IncentiveRecord, error)

// pureTransition handles the status-only operations, which all share the
// same request shape.
func (h *Handler) pureTransition(w http.ResponseWriter, r *http.Request, op transitionFunc) {
	leadID := incentive.LeadID(chi.URLParam(r, "leadID"))

	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := op(r.Context(), leadID, req.Actor.toDomain(), req.Version)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// AppendRemark adds an audit note without changing status.
func (h *Handler) AppendRemark(w http.ResponseWriter, r *http.Request) {
	leadID := incentive.LeadID(chi.URLParam(r, "leadID"))

	var req AppendRemarkRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.Workflow.AppendRemark(r.Context(), leadID, req.Text, req.Actor.toDomain(), req.Version)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// decode parses and validates a JSON request body, writing a 400 itself on
// failure. Returns false when the handler should bail out.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", "Request failed validation", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps taxonomy errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, incentive.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", "Incentive record not found", err)
	case errors.Is(err, incentive.ErrForbidden):
		writeErrorCode(w, http.StatusForbidden, "forbidden", "Actor role not allowed for this operation", err)
	case errors.Is(err, incentive.ErrConflict):
		writeErrorCode(w, http.StatusConflict, "conflict", "Record changed since last read, re-fetch and retry", err)
	case errors.Is(err, incentive.ErrInvalidTransition):
		resp := ErrorResponse{
			Error:   "Operation not allowed from current status",
			Code:    "invalid_transition",
			Details: err.Error(),
		}
		var te *incentive.TransitionError
		if errors.As(err, &te) {
			resp.Status = string(te.From)
		}
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, incentive.ErrDuplicateRecord):
		writeErrorCode(w, http.StatusConflict, "duplicate_record", "Lead already has an incentive record", err)
	case errors.Is(err, incentive.ErrInvalidInput):
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
