// Package validation parses and validates boundary-level request input
// before it reaches the ledger service.
package validation

import (
	domainerr "tally/internal/errors"
	"tally/internal/models"
)

// ParseWalletType converts a raw string into a WalletType.
func ParseWalletType(raw string) (models.WalletType, error) {
	t := models.WalletType(raw)
	if !t.Valid() {
		return "", domainerr.ErrInvalidWalletType
	}
	return t, nil
}

// ParseChangeMethod converts a raw string into a ChangeMethod.
func ParseChangeMethod(raw string) (models.ChangeMethod, error) {
	m := models.ChangeMethod(raw)
	if !m.Valid() {
		return "", domainerr.ErrInvalidChangeMethod
	}
	return m, nil
}

// ParseSourceType converts a raw string into a SourceType. An empty string
// falls back to the given default.
func ParseSourceType(raw string, fallback models.SourceType) (models.SourceType, error) {
	if raw == "" {
		return fallback, nil
	}
	s := models.SourceType(raw)
	if !s.Valid() {
		return "", domainerr.ErrInvalidSourceType
	}
	return s, nil
}
