package errors

import "net/http"

var (
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
		Status:  http.StatusBadRequest,
	}
	ErrInsufficientAvailableFunds = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient available balance",
		Status:  http.StatusBadRequest,
	}
	ErrInsufficientLockedFunds = &DomainError{
		Code:    "INSUFFICIENT_LOCKED_BALANCE",
		Message: "insufficient locked balance",
		Status:  http.StatusConflict,
	}
	ErrInvariantViolation = &DomainError{
		Code:    "BALANCE_INVARIANT_VIOLATION",
		Message: "balance invariant violated",
		Status:  http.StatusInternalServerError,
	}
	ErrStorageContention = &DomainError{
		Code:    "STORAGE_CONTENTION",
		Message: "wallet row is contended, retry the operation",
		Status:  http.StatusConflict,
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Status:  http.StatusNotFound,
	}
	ErrInvalidWalletType = &DomainError{
		Code:    "INVALID_WALLET_TYPE",
		Message: "invalid wallet type",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidChangeMethod = &DomainError{
		Code:    "INVALID_CHANGE_METHOD",
		Message: "invalid change method",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidSourceType = &DomainError{
		Code:    "INVALID_SOURCE_TYPE",
		Message: "invalid source type",
		Status:  http.StatusBadRequest,
	}
)
