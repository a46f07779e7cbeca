// Package chain provides the contract event source and the poll loop feeding
// the dispatcher.
package chain

import (
	"context"
	"strings"

	"github.com/gaponukz/cobraBot/internal/domain"
)

// Filter yields the entries of one subscribed event kind that arrived since
// the previous Poll call, in source order.
type Filter interface {
	Kind() domain.EventKind
	Poll(ctx context.Context) ([]domain.Event, error)
}

// Source creates filters for subscribed event kinds.
type Source interface {
	Subscribe(ctx context.Context, kind domain.EventKind) (Filter, error)
}

// AccountResolver resolves a referral id to the on-chain account address
// registered under it. Used by the set-account flow.
type AccountResolver interface {
	AddressByRefID(ctx context.Context, refID string) (string, error)
}

// NormalizeAddress fixes the canonical account address form: lowercase hex
// with the 0x prefix. Event logs and eth_call results disagree on casing, so
// every address crossing into the directory goes through this.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}

	lower := strings.ToLower(address)
	if !strings.HasPrefix(lower, "0x") {
		lower = "0x" + lower
	}

	return lower
}
