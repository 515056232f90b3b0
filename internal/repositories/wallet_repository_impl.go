package repositories

import (
	"context"
	"errors"
	"fmt"

	"tally/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres error codes that matter to the ledger: all three mean the
// operation lost a race for the wallet row and may be retried from the top.
const (
	pgLockNotAvailable  = "55P03"
	pgSerializationFail = "40001"
	pgDeadlockDetected  = "40P01"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) WithTx(tx *gorm.DB) WalletRepository {
	return &walletRepository{db: tx}
}

func (r *walletRepository) Transaction(ctx context.Context, fn func(WalletRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
	return classifyError(err)
}

func (r *walletRepository) Get(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, walletType).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetForUpdate(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND type = ?", userID, walletType).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		if err := classifyError(err); errors.Is(err, ErrStorageContention) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetOrCreateForUpdate(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	wallet, err := r.GetForUpdate(ctx, userID, walletType)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	wallet = &models.Wallet{
		UserID:        userID,
		Type:          walletType,
		Balance:       0,
		LockedBalance: 0,
	}
	// Insert with ON CONFLICT DO NOTHING: a bare Create that hits the unique
	// index would abort the enclosing transaction, leaving no way to recover
	// in-band. A swallowed conflict means a concurrent first-touch won the
	// insert race, so lock the winner's row instead.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(wallet)
	if res.Error != nil {
		if err := classifyError(res.Error); errors.Is(err, ErrStorageContention) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.GetForUpdate(ctx, userID, walletType)
	}
	return wallet, nil
}

func (r *walletRepository) GetAllByUser(ctx context.Context, userID string) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("type ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (r *walletRepository) Save(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Save(wallet).Error; err != nil {
		if err := classifyError(err); errors.Is(err, ErrStorageContention) {
			return err
		}
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) CreateHistory(ctx context.Context, history *models.WalletHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to create wallet history: %w", err)
	}
	return nil
}

func (r *walletRepository) ListHistory(ctx context.Context, filter HistoryFilter) ([]models.WalletHistory, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletHistory{}).
		Where("user_id = ?", filter.UserID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.RequestBatchID != "" {
		query = query.Where("request_batch_id = ?", filter.RequestBatchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count wallet history: %w", err)
	}

	var rows []models.WalletHistory
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallet history: %w", err)
	}
	return rows, total, nil
}

// classifyError maps retryable database failures to ErrStorageContention and
// passes everything else through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isPgError(err, pgLockNotAvailable, pgSerializationFail, pgDeadlockDetected) {
		return ErrStorageContention
	}
	return err
}

func isPgError(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, code := range codes {
		if pgErr.Code == code {
			return true
		}
	}
	return false
}
