package api

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/rollover-fees/internal/errors"
	"github.com/rollover-fees/internal/logging"
	"github.com/rollover-fees/internal/types"
)

// RolloverFeeResponse is one projected rollover entry
type RolloverFeeResponse struct {
	Time  float64     `json:"time"`
	Asset string      `json:"asset"`
	Fee   json.Number `json:"fee"`
}

// RolloverFeesResponse is the body of a successful /rollover_fees call
type RolloverFeesResponse struct {
	RolloverFees   []RolloverFeeResponse `json:"rollover_fees"`
	InvalidEntries []types.EntryError    `json:"invalid_entries,omitempty"`
}

// RolloverSummaryResponse is the body of a successful /rollover_summary call
type RolloverSummaryResponse struct {
	Count          int                    `json:"count"`
	Total          json.Number            `json:"total"`
	TotalsByWindow map[string]json.Number `json:"totals_by_window"`
	Recent         []RolloverFeeResponse  `json:"recent"`
	InvalidEntries []types.EntryError     `json:"invalid_entries,omitempty"`
}

// RemoteErrorResponse relays the exchange error list unchanged
type RemoteErrorResponse struct {
	Error []string `json:"error"`
}

// handleGetRolloverFees handles GET /rollover_fees
func (s *Server) handleGetRolloverFees(w http.ResponseWriter, r *http.Request) {
	result, err := s.rolloverService.GetRolloverFees(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if len(result.RemoteErrors) > 0 {
		logRemoteErrors(r, result.RemoteErrors)
		respondJSON(w, http.StatusOK, RemoteErrorResponse{Error: result.RemoteErrors})
		return
	}

	logInvalidEntries(r, result.Invalid)

	respondJSON(w, http.StatusOK, RolloverFeesResponse{
		RolloverFees:   toFeeResponses(result.Fees),
		InvalidEntries: result.Invalid,
	})
}

// handleGetRolloverSummary handles GET /rollover_summary?assets=ZUSD,ZEUR
func (s *Server) handleGetRolloverSummary(w http.ResponseWriter, r *http.Request) {
	assets := parseAssets(r.URL.Query().Get("assets"))

	result, summary, err := s.rolloverService.GetRolloverSummary(r.Context(), assets)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if len(result.RemoteErrors) > 0 || summary == nil {
		logRemoteErrors(r, result.RemoteErrors)
		respondJSON(w, http.StatusOK, RemoteErrorResponse{Error: result.RemoteErrors})
		return
	}

	logInvalidEntries(r, result.Invalid)

	totals := make(map[string]json.Number, len(summary.TotalsByWindow))
	for window, total := range summary.TotalsByWindow {
		totals[string(window)] = json.Number(total.String())
	}

	respondJSON(w, http.StatusOK, RolloverSummaryResponse{
		Count:          summary.Count,
		Total:          json.Number(summary.Total.String()),
		TotalsByWindow: totals,
		Recent:         toRecentResponses(summary.Recent),
		InvalidEntries: result.Invalid,
	})
}

func toFeeResponses(fees []types.RolloverFee) []RolloverFeeResponse {
	out := make([]RolloverFeeResponse, 0, len(fees))
	for _, f := range fees {
		out = append(out, RolloverFeeResponse{
			Time:  f.Time,
			Asset: f.Asset,
			Fee:   json.Number(f.Fee.String()),
		})
	}
	return out
}

// toRecentResponses reports each record with the value counted in the totals
func toRecentResponses(fees []types.RolloverFee) []RolloverFeeResponse {
	out := make([]RolloverFeeResponse, 0, len(fees))
	for _, f := range fees {
		out = append(out, RolloverFeeResponse{
			Time:  f.Time,
			Asset: f.Asset,
			Fee:   json.Number(f.Value().String()),
		})
	}
	return out
}

func parseAssets(raw string) []string {
	if raw == "" {
		return nil
	}
	var assets []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			assets = append(assets, part)
		}
	}
	return assets
}

func logRemoteErrors(r *http.Request, remote []string) {
	logging.FromContext(r.Context()).
		WithField("remote_errors", remote).
		Warn("Exchange rejected ledger request")
}

func logInvalidEntries(r *http.Request, invalid []types.EntryError) {
	logger := logging.FromContext(r.Context())
	for _, e := range invalid {
		logger.WithError(apperrors.NewLedgerEntryError(e.ID, e.Reason)).Warn("Skipping malformed rollover entry")
	}
}
