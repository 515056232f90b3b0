package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domainerr "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type service struct {
	repo    repositories.WalletRepository
	cache   SnapshotCache
	config  Config
	metrics MetricsCollector

	// external marks a facade bound to a caller-managed transaction; in that
	// mode operations run on the bound handle instead of opening their own.
	external bool
}

// NewService creates a new ledger service
func NewService(
	repo repositories.WalletRepository,
	cache SnapshotCache,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{
		repo:     s.repo.WithTx(tx),
		cache:    s.cache,
		config:   s.config,
		metrics:  s.metrics,
		external: true,
	}
}

// run executes fn inside a transaction scope. When the facade is bound to an
// externally managed transaction, fn runs directly on it and the owner of
// that transaction decides commit or rollback.
func (s *service) run(ctx context.Context, fn func(repositories.WalletRepository) error) error {
	if s.external {
		return fn(s.repo)
	}
	return s.repo.Transaction(ctx, fn)
}

func (s *service) GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, userID, walletType); err == nil && wallet != nil {
			return wallet, nil
		}
	}

	wallet, err := s.repo.Get(ctx, userID, walletType)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, domainerr.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		s.cache.SetWallet(ctx, wallet)
	}
	return wallet, nil
}

func (s *service) GetBalances(ctx context.Context, userID string) ([]models.Wallet, error) {
	wallets, err := s.repo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	return wallets, nil
}

func (s *service) GetHistory(ctx context.Context, q HistoryQuery) ([]models.WalletHistory, int64, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit > MaxHistoryLimit {
		q.Limit = MaxHistoryLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.ListHistory(ctx, repositories.HistoryFilter{
		UserID:         q.UserID,
		Type:           q.Type,
		RequestBatchID: q.RequestBatchID,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
}

func (s *service) AdjustBalance(ctx context.Context, req AdjustRequest) (*OperationResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("adjust", time.Since(start)) }()

	if !req.ChangeMethod.Valid() {
		return nil, domainerr.ErrInvalidChangeMethod
	}
	allowZero := req.ChangeMethod == models.ChangeMethodSet
	amount, err := NormalizeAmount(req.Amount, allowZero)
	if err != nil {
		s.metrics.RecordError("adjust", errorCode(err))
		return nil, err
	}

	var result OperationResult
	err = s.run(ctx, func(tx repositories.WalletRepository) error {
		wallet, err := tx.GetOrCreateForUpdate(ctx, req.UserID, req.Type)
		if err != nil {
			return err
		}

		before := wallet.Balance
		var next, delta int64
		switch req.ChangeMethod {
		case models.ChangeMethodIncrement:
			next = wallet.Balance + amount
			delta = amount
		case models.ChangeMethodDecrement:
			if wallet.Available() < amount {
				return domainerr.ErrInsufficientAvailableFunds
			}
			next = wallet.Balance - amount
			delta = amount
		case models.ChangeMethodSet:
			// For SET the amount is the absolute target and the recorded
			// delta is the resulting balance.
			next = amount
			delta = next
		}

		if next < 0 || next < wallet.LockedBalance {
			log.Printf("balance invariant violated: user=%s type=%s method=%s next=%d locked=%d",
				req.UserID, req.Type, req.ChangeMethod, next, wallet.LockedBalance)
			return domainerr.ErrInvariantViolation
		}

		wallet.Balance = next
		if err := tx.Save(ctx, wallet); err != nil {
			return err
		}

		history := newHistory(wallet, req.ChangeMethod, delta, before, req.Context)
		if err := tx.CreateHistory(ctx, history); err != nil {
			return err
		}

		result.Wallet = wallet
		result.History = history
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		s.metrics.RecordError("adjust", errorCode(err))
		return nil, err
	}

	s.afterMutation(ctx, "adjust", result.Wallet, result.History.BalanceBefore)
	return &result, nil
}

func (s *service) ReserveBalance(ctx context.Context, userID string, walletType models.WalletType, amount float64) (*models.Wallet, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("reserve", time.Since(start)) }()

	normalized, err := NormalizeAmount(amount, false)
	if err != nil {
		s.metrics.RecordError("reserve", errorCode(err))
		return nil, err
	}

	var wallet *models.Wallet
	err = s.run(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetOrCreateForUpdate(ctx, userID, walletType)
		if err != nil {
			return err
		}
		if w.Available() < normalized {
			return domainerr.ErrInsufficientAvailableFunds
		}
		w.LockedBalance += normalized
		if err := tx.Save(ctx, w); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		s.metrics.RecordError("reserve", errorCode(err))
		return nil, err
	}

	// Reservations only earmark funds; no history row is written.
	s.afterMutation(ctx, "reserve", wallet, wallet.Balance)
	return wallet, nil
}

func (s *service) ReleaseReservation(ctx context.Context, userID string, walletType models.WalletType, amount float64) (*models.Wallet, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("release", time.Since(start)) }()

	normalized, err := NormalizeAmount(amount, false)
	if err != nil {
		s.metrics.RecordError("release", errorCode(err))
		return nil, err
	}

	var wallet *models.Wallet
	err = s.run(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetOrCreateForUpdate(ctx, userID, walletType)
		if err != nil {
			return err
		}
		if w.LockedBalance < normalized {
			return domainerr.ErrInsufficientLockedFunds
		}
		w.LockedBalance -= normalized
		if err := tx.Save(ctx, w); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		s.metrics.RecordError("release", errorCode(err))
		return nil, err
	}

	s.afterMutation(ctx, "release", wallet, wallet.Balance)
	return wallet, nil
}

func (s *service) ConsumeReservedBalance(ctx context.Context, req ConsumeRequest) (*OperationResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("consume", time.Since(start)) }()

	amount, err := NormalizeAmount(req.Amount, false)
	if err != nil {
		s.metrics.RecordError("consume", errorCode(err))
		return nil, err
	}

	var result OperationResult
	err = s.run(ctx, func(tx repositories.WalletRepository) error {
		wallet, err := tx.GetOrCreateForUpdate(ctx, req.UserID, req.Type)
		if err != nil {
			return err
		}
		if wallet.LockedBalance < amount {
			return domainerr.ErrInsufficientLockedFunds
		}
		if wallet.Balance < amount {
			// Locked funds exceeding the balance means the invariant is
			// already broken in storage; abort rather than spend.
			log.Printf("balance invariant violated: user=%s type=%s balance=%d locked=%d consume=%d",
				req.UserID, req.Type, wallet.Balance, wallet.LockedBalance, amount)
			return domainerr.ErrInvariantViolation
		}

		before := wallet.Balance
		wallet.Balance -= amount
		wallet.LockedBalance -= amount
		if err := tx.Save(ctx, wallet); err != nil {
			return err
		}

		// Settling a reservation is a real spend and is audited exactly
		// like a direct decrement.
		history := newHistory(wallet, models.ChangeMethodDecrement, amount, before, req.Context)
		if err := tx.CreateHistory(ctx, history); err != nil {
			return err
		}

		result.Wallet = wallet
		result.History = history
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		s.metrics.RecordError("consume", errorCode(err))
		return nil, err
	}

	s.afterMutation(ctx, "consume", result.Wallet, result.History.BalanceBefore)
	return &result, nil
}

// afterMutation invalidates the cached snapshot and records metrics for a
// committed operation.
func (s *service) afterMutation(ctx context.Context, operation string, wallet *models.Wallet, before int64) {
	if s.cache != nil {
		if err := s.cache.InvalidateWallet(ctx, wallet.UserID, wallet.Type); err != nil {
			log.Printf("failed to invalidate wallet cache: user=%s type=%s: %v", wallet.UserID, wallet.Type, err)
		}
	}
	s.metrics.RecordOperationResult(operation, "success")
	s.metrics.RecordBalanceChange(wallet.UserID, wallet.Type, before, wallet.Balance)
}

func newHistory(wallet *models.Wallet, method models.ChangeMethod, delta, before int64, cc ChangeContext) *models.WalletHistory {
	batchID := cc.RequestBatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	source := cc.SourceType
	if source == "" {
		source = models.SourceTypeSystem
	}
	return &models.WalletHistory{
		UserID:         wallet.UserID,
		Type:           wallet.Type,
		ChangeMethod:   method,
		PointsDelta:    delta,
		BalanceBefore:  before,
		BalanceAfter:   wallet.Balance,
		SourceType:     source,
		RequestBatchID: batchID,
		Reason:         cc.Reason,
		Meta:           models.MetaMap(cc.Meta).Clean(),
	}
}

// mapRepoError lifts repository sentinels into the domain error taxonomy.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrWalletNotFound):
		return domainerr.ErrWalletNotFound
	case errors.Is(err, repositories.ErrStorageContention):
		return domainerr.ErrStorageContention
	}
	return err
}

func errorCode(err error) string {
	var de *domainerr.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
