package adapter

import (
	"context"

	"github.com/rollover-fees/internal/types"
)

// LedgerAdapter defines the interface for exchange ledger providers
type LedgerAdapter interface {
	// FetchLedgers retrieves one page of ledger history with a single signed request.
	// An exchange-reported error list is returned inside the Ledger, not as err.
	// err is a categorized transport, timeout, status or parse error.
	FetchLedgers(ctx context.Context) (*types.Ledger, error)
}

// NonceSource hands out nonces for private requests.
// Every value returned must be greater than all values returned before it
// for the same credentials.
type NonceSource interface {
	Next(ctx context.Context) (int64, error)
}
