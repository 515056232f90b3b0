package repositories

import (
	"context"
	"errors"

	"tally/internal/models"

	"gorm.io/gorm"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrStorageContention = errors.New("storage contention")
)

// HistoryFilter narrows a wallet history listing.
type HistoryFilter struct {
	UserID         string
	Type           *models.WalletType
	RequestBatchID string
	Limit          int
	Offset         int
}

// WalletRepository defines the database operations of the wallet ledger.
//
// The locking reads take a row-level exclusive lock that is held until the
// surrounding transaction ends, so they must be called on a repository bound
// to a transaction (via Transaction or WithTx). History rows are insert-only;
// the interface deliberately offers no way to update or delete them.
type WalletRepository interface {
	Get(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)
	GetForUpdate(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)
	GetOrCreateForUpdate(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)
	GetAllByUser(ctx context.Context, userID string) ([]models.Wallet, error)
	Save(ctx context.Context, wallet *models.Wallet) error

	CreateHistory(ctx context.Context, history *models.WalletHistory) error
	ListHistory(ctx context.Context, filter HistoryFilter) ([]models.WalletHistory, int64, error)

	// Transaction runs fn inside a database transaction, passing a
	// repository bound to it. Returning an error rolls the transaction back.
	Transaction(ctx context.Context, fn func(WalletRepository) error) error

	// WithTx binds the repository to an externally managed transaction.
	// The owner of tx controls commit and rollback.
	WithTx(tx *gorm.DB) WalletRepository
}
