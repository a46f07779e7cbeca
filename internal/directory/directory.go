// Package directory owns the persistent user directory. All reads and writes
// go through the Store interface; the durable representation (JSON snapshot
// file or postgres) stays hidden behind it.
package directory

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/gaponukz/cobraBot/internal/domain"
)

var (
	// ErrNotFound is returned for lookups and updates targeting an absent id.
	ErrNotFound = errors.New("directory: user not found")
	// ErrDuplicateID rejects a second record for the same recipient id.
	ErrDuplicateID = errors.New("directory: user id already registered")
	// ErrDuplicateRefID rejects a second record claiming the same referral id.
	ErrDuplicateRefID = errors.New("directory: referral id already taken")
	// ErrDuplicateAddress rejects a second record claiming the same address.
	ErrDuplicateAddress = errors.New("directory: address already taken")
)

// Patch is a multi-field edit. Nil fields are left unchanged; all named fields
// are applied under one lock and persisted in a single snapshot write, so two
// concurrent updates can no longer drop each other's changes.
type Patch struct {
	Language *string
	RefID    *string
	Address  *string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Language == nil && p.RefID == nil && p.Address == nil
}

// Store defines the user directory operations.
//
// Implementations must keep the uniqueness invariants: at most one record per
// id, per non-nil referral id, and per non-nil address. All returns users in
// insertion order, which fixes broadcast fan-out order.
type Store interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByAddress(ctx context.Context, address string) (*domain.User, error)
	FindByRefID(ctx context.Context, refID string) (*domain.User, error)
	Insert(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id int64, patch Patch) (*domain.User, error)
	All(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// GetOrCreate returns the record for id, inserting a default one on first
// contact.
func GetOrCreate(ctx context.Context, store Store, id int64) (*domain.User, error) {
	user, err := store.FindByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user = domain.NewDefaultUser(id)
	if err := store.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			return store.FindByID(ctx, id)
		}
		return nil, err
	}

	return user, nil
}

// NormalizeRefID fixes the canonical referral id representation: the decimal
// form of the numeric id when it parses as one, the trimmed raw string
// otherwise. Events carry the raw on-chain number while users type the id by
// hand, so both sides must normalize before comparing.
func NormalizeRefID(refID string) string {
	trimmed := strings.TrimSpace(refID)
	if trimmed == "" {
		return ""
	}

	if n, ok := new(big.Int).SetString(trimmed, 10); ok {
		return n.String()
	}

	return trimmed
}
