package ledger

import (
	"time"

	"tally/internal/models"
)

// ChangeContext carries the caller-supplied audit context for an operation.
type ChangeContext struct {
	SourceType     models.SourceType
	RequestBatchID string
	Reason         string
	Meta           map[string]string
}

// AdjustRequest describes a direct balance change.
// Amount is normalized (truncated toward zero to an integer) before any
// storage access; for SET it is the absolute target balance, not a delta.
type AdjustRequest struct {
	UserID       string
	Type         models.WalletType
	ChangeMethod models.ChangeMethod
	Amount       float64
	Context      ChangeContext
}

// ConsumeRequest settles a prior reservation as a real spend.
type ConsumeRequest struct {
	UserID  string
	Type    models.WalletType
	Amount  float64
	Context ChangeContext
}

// OperationResult pairs the updated wallet with the audit row the operation
// produced. History is nil only for reserve and release, which earmark funds
// without writing to the ledger.
type OperationResult struct {
	Wallet  *models.Wallet
	History *models.WalletHistory
}

// HistoryQuery selects a page of a user's history, optionally narrowed to
// one currency type or one request batch.
type HistoryQuery struct {
	UserID         string
	Type           *models.WalletType
	RequestBatchID string
	Limit          int
	Offset         int
}

// Config holds tunables for the ledger service.
type Config struct {
	CacheTTL time.Duration
}

// Default configuration values
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)
