package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rollover-fees/internal/adapter"
	"github.com/rollover-fees/internal/types"
)

// RolloverService turns raw ledger history into rollover fee views
type RolloverService struct {
	ledgers adapter.LedgerAdapter
	clock   Clock
}

// NewRolloverService creates a new rollover service
func NewRolloverService(ledgers adapter.LedgerAdapter) *RolloverService {
	return &RolloverService{
		ledgers: ledgers,
		clock:   systemClock{},
	}
}

// GetRolloverFees fetches the ledger once and returns its rollover entries.
// An exchange-reported error list short-circuits filtering.
func (s *RolloverService) GetRolloverFees(ctx context.Context) (*types.RolloverFeesResult, error) {
	ledger, err := s.ledgers.FetchLedgers(ctx)
	if err != nil {
		return nil, err
	}

	if ledger.HasErrors() {
		return &types.RolloverFeesResult{RemoteErrors: ledger.Errors}, nil
	}

	fees, invalid := FilterRollovers(ledger.Entries)
	return &types.RolloverFeesResult{
		Fees:    fees,
		Invalid: invalid,
	}, nil
}

// GetRolloverSummary fetches the ledger once and aggregates its rollover fees,
// optionally restricted to assets. The summary is nil when the exchange
// reported errors.
func (s *RolloverService) GetRolloverSummary(ctx context.Context, assets []string) (*types.RolloverFeesResult, *types.RolloverSummary, error) {
	result, err := s.GetRolloverFees(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(result.RemoteErrors) > 0 {
		return result, nil, nil
	}
	return result, Summarize(result.Fees, assets, s.clock.Now()), nil
}

// FilterRollovers scans every entry in order and projects those of type
// rollover. Rollover entries that cannot be projected are reported instead
// of aborting the scan. The returned fee slice is never nil.
func FilterRollovers(entries []types.LedgerEntry) ([]types.RolloverFee, []types.EntryError) {
	fees := make([]types.RolloverFee, 0)
	var invalid []types.EntryError

	for _, entry := range entries {
		if entry.Type != types.LedgerTypeRollover {
			continue
		}

		fee, reason := projectRollover(entry)
		if reason != "" {
			invalid = append(invalid, types.EntryError{ID: entry.ID, Reason: reason})
			continue
		}
		fees = append(fees, fee)
	}

	return fees, invalid
}

// projectRollover returns the projection or a non-empty reason it failed
func projectRollover(entry types.LedgerEntry) (types.RolloverFee, string) {
	if entry.Problem != "" {
		return types.RolloverFee{}, entry.Problem
	}
	if entry.Asset == "" {
		return types.RolloverFee{}, "asset is missing"
	}
	if entry.Fee == "" {
		return types.RolloverFee{}, "fee is missing"
	}

	fee, err := decimal.NewFromString(entry.Fee)
	if err != nil {
		return types.RolloverFee{}, fmt.Sprintf("fee %q is not a decimal", entry.Fee)
	}

	// amount only feeds summaries, a bad one counts as zero
	amount, err := decimal.NewFromString(entry.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	return types.RolloverFee{
		Time:   entry.Time,
		Asset:  entry.Asset,
		Fee:    fee,
		Amount: amount,
	}, ""
}
