// Package types provides common type definitions for the rollover fee service.
package types

import (
	"github.com/shopspring/decimal"
)

// LedgerType is the category tag of a ledger entry
type LedgerType string

const (
	// LedgerTypeRollover is the fee charged for holding a margin position open
	LedgerTypeRollover LedgerType = "rollover"
	// LedgerTypeTrade is a trade settlement
	LedgerTypeTrade LedgerType = "trade"
	// LedgerTypeDeposit is a funding deposit
	LedgerTypeDeposit LedgerType = "deposit"
	// LedgerTypeMargin is a margin position settlement
	LedgerTypeMargin LedgerType = "margin"
)

// LedgerEntry is one accounting record from the exchange ledger history.
// Amount and Fee hold the decimal strings exactly as received.
type LedgerEntry struct {
	ID      string
	RefID   string
	Type    LedgerType
	Subtype string
	Time    float64
	Asset   string
	Amount  string
	Fee     string
	Balance string

	// Problem describes a field that could not be decoded, empty when the
	// entry was well formed.
	Problem string
}

// Ledger is the decoded ledger history in the order the exchange sent it.
// Errors carries the exchange-reported error list verbatim.
type Ledger struct {
	Errors  []string
	Entries []LedgerEntry
}

// HasErrors reports whether the exchange rejected the request
func (l *Ledger) HasErrors() bool {
	return len(l.Errors) > 0
}

// RolloverFee is the simplified projection of a rollover ledger entry
type RolloverFee struct {
	Time  float64
	Asset string
	Fee   decimal.Decimal

	// Amount is kept for summaries that fall back to it when Fee is zero
	Amount decimal.Decimal
}

// Value is the charged fee, or the absolute amount when the exchange booked
// the charge there and left fee at zero.
func (f RolloverFee) Value() decimal.Decimal {
	if !f.Fee.IsZero() {
		return f.Fee
	}
	return f.Amount.Abs()
}

// EntryError reports a rollover entry that could not be projected
type EntryError struct {
	ID     string `json:"id"`
	Reason string `json:"error"`
}

// RolloverFeesResult is the outcome of one ledger fetch.
// When RemoteErrors is non-empty Fees and Invalid are always empty.
type RolloverFeesResult struct {
	RemoteErrors []string
	Fees         []RolloverFee
	Invalid      []EntryError
}

// SummaryWindow names a trailing time window for fee totals
type SummaryWindow string

const (
	Window1Day   SummaryWindow = "1d"
	Window7Day   SummaryWindow = "7d"
	Window30Day  SummaryWindow = "30d"
	Window365Day SummaryWindow = "365d"
)

// RolloverSummary aggregates rollover fees of a single ledger page
type RolloverSummary struct {
	Count          int
	Total          decimal.Decimal
	TotalsByWindow map[SummaryWindow]decimal.Decimal
	Recent         []RolloverFee
}
