package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassifyError_MapsRetryableCodesToContention(t *testing.T) {
	for _, code := range []string{pgLockNotAvailable, pgSerializationFail, pgDeadlockDetected} {
		err := fmt.Errorf("query failed: %w", &pgconn.PgError{Code: code})
		require.ErrorIs(t, classifyError(err), ErrStorageContention, "code %s", code)
	}
}

func TestClassifyError_PassesOtherErrorsThrough(t *testing.T) {
	require.NoError(t, classifyError(nil))

	plain := errors.New("connection reset")
	require.Equal(t, plain, classifyError(plain))

	// Unique violations are handled by the conflict-tolerant insert, not by
	// the retry path, so they must not masquerade as contention.
	unique := &pgconn.PgError{Code: "23505"}
	require.Equal(t, error(unique), classifyError(unique))
	require.NotErrorIs(t, classifyError(unique), ErrStorageContention)
}
