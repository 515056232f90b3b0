package ledger

import (
	"context"

	"tally/internal/models"

	"gorm.io/gorm"
)

// Service is the wallet ledger facade the rest of the system calls.
type Service interface {
	// Read path
	GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)
	GetBalances(ctx context.Context, userID string) ([]models.Wallet, error)
	GetHistory(ctx context.Context, q HistoryQuery) ([]models.WalletHistory, int64, error)

	// Ledger operations
	AdjustBalance(ctx context.Context, req AdjustRequest) (*OperationResult, error)
	ReserveBalance(ctx context.Context, userID string, walletType models.WalletType, amount float64) (*models.Wallet, error)
	ReleaseReservation(ctx context.Context, userID string, walletType models.WalletType, amount float64) (*models.Wallet, error)
	ConsumeReservedBalance(ctx context.Context, req ConsumeRequest) (*OperationResult, error)

	// WithTx returns a facade bound to an externally managed transaction.
	// Operations on the returned Service neither open nor commit their own
	// transaction; the owner of tx decides commit or rollback, so a wallet
	// change can land atomically with the caller's other writes.
	WithTx(tx *gorm.DB) Service
}

// SnapshotCache caches wallet snapshots for the read path. Ledger operations
// never read balances from it; they only invalidate entries after committing.
type SnapshotCache interface {
	GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID string, walletType models.WalletType) error
}
