/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	records at interesting lifecycle points, for demos and manual testing
	of the workflow UI.

AVAILABLE SCENARIOS:

	fresh-review:     Records at pending, waiting for the first review
	mid-correction:   A record mid-negotiation with computed amounts and remarks
	awaiting-payment: A fully agreed record parked at payment_confirmation

HOW SCENARIOS WORK:
 1. Reset the store (clear all records)
 2. Create records via the workflow service
 3. Drive them through transitions to the target status

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mid-correction"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leadflow/incentive-engine/incentive"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-review",
		Name:        "Fresh Review",
		Description: "Two pending records waiting for the Reviewer's first numbers",
	},
	{
		ID:          "mid-correction",
		Name:        "Mid-Correction",
		Description: "A record in the correction loop with computed amounts and remarks",
	},
	{
		ID:          "awaiting-payment",
		Name:        "Awaiting Payment",
		Description: "A fully agreed record parked at payment_confirmation",
	},
}

// resettable is implemented by both store backends; scenario loading needs
// a clean slate.
type resettable interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and seeds the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.resetStore(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-review":
		err = h.loadFreshReviewScenario(ctx)
	case "mid-correction":
		err = h.loadMidCorrectionScenario(ctx)
	case "awaiting-payment":
		err = h.loadAwaitingPaymentScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]any{"loaded": req.ScenarioID})
}

// ResetRecords wipes all records without loading anything.
func (h *Handler) ResetRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func (h *Handler) resetStore(ctx context.Context) error {
	rs, ok := h.Store.(resettable)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return rs.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var (
	demoReviewer  = incentive.Actor{ID: "usr-priya", Name: "Priya Nair", Role: incentive.RoleReviewer}
	demoRecipient = incentive.Actor{ID: "usr-arjun", Name: "Arjun Mehta", Role: incentive.RoleRecipient}
)

func (h *Handler) loadFreshReviewScenario(ctx context.Context) error {
	for _, seed := range []struct {
		lead      string
		gross     float64
		intercity float64
	}{
		{"lead-2041", 250000, 100000},
		{"lead-2042", 180000, 75000},
	} {
		base := incentive.NewMoney(seed.intercity, incentive.CurrencyINR)
		_, err := h.Workflow.CreateRecord(ctx, incentive.NewRecordParams{
			LeadID:              incentive.LeadID(seed.lead),
			GrossIncomeReceived: incentive.NewMoney(seed.gross, incentive.CurrencyINR),
			IntercityDeal:       true,
			IntercityAmount:     &base,
			ReferralAmount:      incentive.NewMoney(5000, incentive.CurrencyINR),
			Expenses:            incentive.NewMoney(2500, incentive.CurrencyINR),
			Goodwill:            incentive.NewMoney(0, incentive.CurrencyINR),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadMidCorrectionScenario(ctx context.Context) error {
	base := incentive.NewMoney(100000, incentive.CurrencyINR)
	rec, err := h.Workflow.CreateRecord(ctx, incentive.NewRecordParams{
		LeadID:              "lead-3001",
		GrossIncomeReceived: incentive.NewMoney(320000, incentive.CurrencyINR),
		IntercityDeal:       true,
		IntercityAmount:     &base,
		ReferralAmount:      incentive.NewMoney(10000, incentive.CurrencyINR),
		Expenses:            incentive.NewMoney(4000, incentive.CurrencyINR),
		Goodwill:            incentive.NewMoney(1000, incentive.CurrencyINR),
	})
	if err != nil {
		return err
	}

	// First proposal, then a revision after pushback.
	rec, err = h.Workflow.SubmitReview(ctx, rec.LeadID,
		incentive.MustParseDecimal("60"), incentive.MustParseDecimal("10"),
		"Initial split per the intercity agreement", demoReviewer, 0)
	if err != nil {
		return err
	}
	_, err = h.Workflow.SubmitReview(ctx, rec.LeadID,
		incentive.MustParseDecimal("55"), incentive.MustParseDecimal("10"),
		"Adjusted after expense review", demoReviewer, 0)
	return err
}

func (h *Handler) loadAwaitingPaymentScenario(ctx context.Context) error {
	base := incentive.NewMoney(150000, incentive.CurrencyINR)
	rec, err := h.Workflow.CreateRecord(ctx, incentive.NewRecordParams{
		LeadID:              "lead-4001",
		GrossIncomeReceived: incentive.NewMoney(500000, incentive.CurrencyINR),
		IntercityDeal:       true,
		IntercityAmount:     &base,
		ReferralAmount:      incentive.NewMoney(0, incentive.CurrencyINR),
		Expenses:            incentive.NewMoney(12000, incentive.CurrencyINR),
		Goodwill:            incentive.NewMoney(5000, incentive.CurrencyINR),
	})
	if err != nil {
		return err
	}

	if _, err = h.Workflow.SubmitReview(ctx, rec.LeadID,
		incentive.MustParseDecimal("50"), incentive.MustParseDecimal("10"),
		"Agreed split", demoReviewer, 0); err != nil {
		return err
	}
	if _, err = h.Workflow.AcceptByRecipient(ctx, rec.LeadID, demoRecipient, 0); err != nil {
		return err
	}
	if _, err = h.Workflow.Accept(ctx, rec.LeadID, demoReviewer, 0); err != nil {
		return err
	}
	_, err = h.Workflow.SendForPayment(ctx, rec.LeadID, demoReviewer, 0)
	return err
}
