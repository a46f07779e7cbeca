package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

func TestDuplicateError_MapsConstraintToMatchingError(t *testing.T) {
	assert.ErrorIs(t, duplicateError(uniqueViolation("users_pkey"), ErrDuplicateID), ErrDuplicateID)
	assert.ErrorIs(t, duplicateError(uniqueViolation("users_ref_id_key"), ErrDuplicateID), ErrDuplicateRefID)
	assert.ErrorIs(t, duplicateError(uniqueViolation("users_address_key"), ErrDuplicateID), ErrDuplicateAddress)
}

func TestDuplicateError_WrappedErrorStillMatches(t *testing.T) {
	wrapped := fmt.Errorf("insert user: %w", uniqueViolation("users_address_key"))
	assert.ErrorIs(t, duplicateError(wrapped, ErrDuplicateID), ErrDuplicateAddress)
}

func TestDuplicateError_UnknownConstraintFallsBack(t *testing.T) {
	assert.ErrorIs(t, duplicateError(uniqueViolation("users_custom_key"), ErrDuplicateRefID), ErrDuplicateRefID)
}

func TestDuplicateError_IgnoresOtherErrors(t *testing.T) {
	assert.NoError(t, duplicateError(errors.New("connection reset"), ErrDuplicateID))
	assert.NoError(t, duplicateError(&pq.Error{Code: "23503"}, ErrDuplicateID))
	assert.NoError(t, duplicateError(nil, ErrDuplicateID))
}
