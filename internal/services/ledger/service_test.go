package ledger

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	domainerr "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory WalletRepository with transaction rollback
// semantics, so tests can assert that failed operations leave no trace.
type fakeRepo struct {
	wallets           map[string]*models.Wallet
	history           []models.WalletHistory
	nextHistoryID     uint
	transactionCalls  int
	failCreateHistory error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{wallets: make(map[string]*models.Wallet)}
}

func walletKey(userID string, t models.WalletType) string {
	return userID + "/" + string(t)
}

func copyWallet(w *models.Wallet) *models.Wallet {
	c := *w
	return &c
}

func (f *fakeRepo) Get(_ context.Context, userID string, t models.WalletType) (*models.Wallet, error) {
	w, ok := f.wallets[walletKey(userID, t)]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return copyWallet(w), nil
}

func (f *fakeRepo) GetForUpdate(ctx context.Context, userID string, t models.WalletType) (*models.Wallet, error) {
	return f.Get(ctx, userID, t)
}

func (f *fakeRepo) GetOrCreateForUpdate(ctx context.Context, userID string, t models.WalletType) (*models.Wallet, error) {
	if w, err := f.Get(ctx, userID, t); err == nil {
		return w, nil
	}
	w := &models.Wallet{ID: uint(len(f.wallets) + 1), UserID: userID, Type: t}
	f.wallets[walletKey(userID, t)] = copyWallet(w)
	return w, nil
}

func (f *fakeRepo) GetAllByUser(_ context.Context, userID string) ([]models.Wallet, error) {
	var out []models.Wallet
	for _, w := range f.wallets {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (f *fakeRepo) Save(_ context.Context, w *models.Wallet) error {
	w.UpdatedAt = time.Now()
	f.wallets[walletKey(w.UserID, w.Type)] = copyWallet(w)
	return nil
}

func (f *fakeRepo) CreateHistory(_ context.Context, h *models.WalletHistory) error {
	if f.failCreateHistory != nil {
		return f.failCreateHistory
	}
	f.nextHistoryID++
	h.ID = f.nextHistoryID
	h.CreatedAt = time.Now()
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeRepo) ListHistory(_ context.Context, filter repositories.HistoryFilter) ([]models.WalletHistory, int64, error) {
	var matched []models.WalletHistory
	for i := len(f.history) - 1; i >= 0; i-- {
		h := f.history[i]
		if h.UserID != filter.UserID {
			continue
		}
		if filter.Type != nil && h.Type != *filter.Type {
			continue
		}
		if filter.RequestBatchID != "" && h.RequestBatchID != filter.RequestBatchID {
			continue
		}
		matched = append(matched, h)
	}
	total := int64(len(matched))
	if filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else {
		matched = nil
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeRepo) Transaction(_ context.Context, fn func(repositories.WalletRepository) error) error {
	f.transactionCalls++
	snapshot := make(map[string]*models.Wallet, len(f.wallets))
	for k, v := range f.wallets {
		snapshot[k] = copyWallet(v)
	}
	historyLen := len(f.history)
	if err := fn(f); err != nil {
		f.wallets = snapshot
		f.history = f.history[:historyLen]
		return err
	}
	return nil
}

func (f *fakeRepo) WithTx(*gorm.DB) repositories.WalletRepository {
	return f
}

func newTestService(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, nil, Config{}, nil), repo
}

func seedWallet(repo *fakeRepo, userID string, walletType models.WalletType, balance, locked int64) {
	repo.wallets[walletKey(userID, walletType)] = &models.Wallet{
		ID:            uint(len(repo.wallets) + 1),
		UserID:        userID,
		Type:          walletType,
		Balance:       balance,
		LockedBalance: locked,
	}
}

func requireWalletState(t *testing.T, repo *fakeRepo, userID string, walletType models.WalletType, balance, locked int64) {
	t.Helper()
	w, ok := repo.wallets[walletKey(userID, walletType)]
	require.True(t, ok, "wallet should exist")
	require.Equal(t, balance, w.Balance)
	require.Equal(t, locked, w.LockedBalance)
	require.GreaterOrEqual(t, w.LockedBalance, int64(0))
	require.LessOrEqual(t, w.LockedBalance, w.Balance)
}

func TestAdjustBalance_IncrementCreatesWalletLazily(t *testing.T) {
	svc, repo := newTestService(t)

	res, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodIncrement,
		Amount:       500,
		Context:      ChangeContext{SourceType: models.SourceTypeAdminAction, Reason: "signup bonus"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), res.Wallet.Balance)
	require.Equal(t, int64(0), res.Wallet.LockedBalance)

	require.NotNil(t, res.History)
	require.Equal(t, int64(0), res.History.BalanceBefore)
	require.Equal(t, int64(500), res.History.BalanceAfter)
	require.Equal(t, int64(500), res.History.PointsDelta)
	require.Equal(t, models.ChangeMethodIncrement, res.History.ChangeMethod)
	require.Equal(t, models.SourceTypeAdminAction, res.History.SourceType)
	require.NotEmpty(t, res.History.RequestBatchID, "batch id is generated when omitted")

	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 500, 0)
	require.Len(t, repo.history, 1)
}

func TestAdjustBalance_FractionalAmountTruncates(t *testing.T) {
	svc, repo := newTestService(t)

	res, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularCoin,
		ChangeMethod: models.ChangeMethodIncrement,
		Amount:       10.9,
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), res.Wallet.Balance)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularCoin, 10, 0)
}

func TestAdjustBalance_RejectsInvalidAmounts(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 0)

	for _, amount := range []float64{-5, 0} {
		_, err := svc.AdjustBalance(context.Background(), AdjustRequest{
			UserID:       "u-1",
			Type:         models.WalletTypeRegularPoint,
			ChangeMethod: models.ChangeMethodIncrement,
			Amount:       amount,
		})
		require.ErrorIs(t, err, domainerr.ErrInvalidAmount)
	}

	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	require.Empty(t, repo.history, "rejected input must not reach the ledger")
	require.Zero(t, repo.transactionCalls, "validation happens before storage access")
}

func TestAdjustBalance_DecrementDrawsFromAvailableOnly(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 40)

	_, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodDecrement,
		Amount:       61,
	})
	require.ErrorIs(t, err, domainerr.ErrInsufficientAvailableFunds)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 40)
	require.Empty(t, repo.history)

	res, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodDecrement,
		Amount:       60,
	})
	require.NoError(t, err)
	require.Equal(t, int64(40), res.Wallet.Balance)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 40, 40)
}

func TestAdjustBalance_IncrementThenDecrementRestoresBalance(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 250, 0)

	ctx := context.Background()
	_, err := svc.AdjustBalance(ctx, AdjustRequest{
		UserID: "u-1", Type: models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodIncrement, Amount: 75,
	})
	require.NoError(t, err)
	_, err = svc.AdjustBalance(ctx, AdjustRequest{
		UserID: "u-1", Type: models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodDecrement, Amount: 75,
	})
	require.NoError(t, err)

	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 250, 0)
	require.Len(t, repo.history, 2)
}

func TestAdjustBalance_SetRecordsResultingBalanceAsDelta(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeTemporaryPoint, 70, 0)

	res, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeTemporaryPoint,
		ChangeMethod: models.ChangeMethodSet,
		Amount:       0,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.Wallet.Balance)
	require.Equal(t, int64(70), res.History.BalanceBefore)
	require.Equal(t, int64(0), res.History.BalanceAfter)
	require.Equal(t, int64(0), res.History.PointsDelta)
	require.Equal(t, models.ChangeMethodSet, res.History.ChangeMethod)
	requireWalletState(t, repo, "u-1", models.WalletTypeTemporaryPoint, 0, 0)
}

func TestAdjustBalance_SetBelowLockedFundsFails(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 50, 20)

	_, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodSet,
		Amount:       10,
	})
	require.ErrorIs(t, err, domainerr.ErrInvariantViolation)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 50, 20)
	require.Empty(t, repo.history)
}

func TestAdjustBalance_RollsBackWalletWhenHistoryWriteFails(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	repo.failCreateHistory = errors.New("disk full")

	_, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodIncrement,
		Amount:       50,
	})
	require.Error(t, err)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	require.Empty(t, repo.history, "no balance change may commit without its audit row")
}

func TestReserveAndRelease_DoNotTouchTheLedger(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	ctx := context.Background()

	w, err := svc.ReserveBalance(ctx, "u-1", models.WalletTypeRegularPoint, 30)
	require.NoError(t, err)
	require.Equal(t, int64(100), w.Balance)
	require.Equal(t, int64(30), w.LockedBalance)

	w, err = svc.ReleaseReservation(ctx, "u-1", models.WalletTypeRegularPoint, 30)
	require.NoError(t, err)
	require.Equal(t, int64(100), w.Balance)
	require.Equal(t, int64(0), w.LockedBalance)

	require.Empty(t, repo.history, "reservations are not ledger events")
}

func TestReserveBalance_RejectsMoreThanAvailable(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 80)

	_, err := svc.ReserveBalance(context.Background(), "u-1", models.WalletTypeRegularPoint, 21)
	require.ErrorIs(t, err, domainerr.ErrInsufficientAvailableFunds)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 80)
}

func TestReleaseReservation_RejectsMoreThanLocked(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 30)

	_, err := svc.ReleaseReservation(context.Background(), "u-1", models.WalletTypeRegularPoint, 31)
	require.ErrorIs(t, err, domainerr.ErrInsufficientLockedFunds)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 30)
}

func TestConsumeReservedBalance_SettlesAsAuditedSpend(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	ctx := context.Background()

	_, err := svc.ReserveBalance(ctx, "u-1", models.WalletTypeRegularPoint, 30)
	require.NoError(t, err)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 30)

	res, err := svc.ConsumeReservedBalance(ctx, ConsumeRequest{
		UserID:  "u-1",
		Type:    models.WalletTypeRegularPoint,
		Amount:  30,
		Context: ChangeContext{Reason: "order#1"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(70), res.Wallet.Balance)
	require.Equal(t, int64(0), res.Wallet.LockedBalance)
	require.Equal(t, int64(100), res.History.BalanceBefore)
	require.Equal(t, int64(70), res.History.BalanceAfter)
	require.Equal(t, int64(30), res.History.PointsDelta)
	require.Equal(t, models.ChangeMethodDecrement, res.History.ChangeMethod)
	require.Equal(t, "order#1", res.History.Reason)

	// Follow-up from the same scenario: an absolute reset to zero.
	setRes, err := svc.AdjustBalance(ctx, AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodSet,
		Amount:       0,
	})
	require.NoError(t, err)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 0, 0)
	require.Equal(t, int64(70), setRes.History.BalanceBefore)
	require.Equal(t, int64(0), setRes.History.BalanceAfter)
	require.Equal(t, int64(0), setRes.History.PointsDelta)
	require.Equal(t, models.ChangeMethodSet, setRes.History.ChangeMethod)
}

func TestConsumeReservedBalance_RejectsMoreThanLocked(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 20)

	_, err := svc.ConsumeReservedBalance(context.Background(), ConsumeRequest{
		UserID: "u-1",
		Type:   models.WalletTypeRegularPoint,
		Amount: 21,
	})
	require.ErrorIs(t, err, domainerr.ErrInsufficientLockedFunds)
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 100, 20)
	require.Empty(t, repo.history)
}

func TestConsumeReservedBalance_RejectsWhenBalanceBelowConsumedAmount(t *testing.T) {
	svc, repo := newTestService(t)
	// Locked funds cover the consume but the balance does not; this state
	// cannot arise through the service and signals corrupted storage.
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 10, 20)

	_, err := svc.ConsumeReservedBalance(context.Background(), ConsumeRequest{
		UserID: "u-1",
		Type:   models.WalletTypeRegularPoint,
		Amount: 15,
	})
	require.ErrorIs(t, err, domainerr.ErrInvariantViolation)

	w := repo.wallets[walletKey("u-1", models.WalletTypeRegularPoint)]
	require.Equal(t, int64(10), w.Balance, "corrupted wallet must be left untouched")
	require.Equal(t, int64(20), w.LockedBalance)
	require.Empty(t, repo.history)
}

func TestConsumeReservedBalance_MatchesDirectDecrementInAuditTerms(t *testing.T) {
	ctx := context.Background()

	reserveSvc, reserveRepo := newTestService(t)
	seedWallet(reserveRepo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	_, err := reserveSvc.ReserveBalance(ctx, "u-1", models.WalletTypeRegularPoint, 25)
	require.NoError(t, err)
	consumed, err := reserveSvc.ConsumeReservedBalance(ctx, ConsumeRequest{
		UserID: "u-1", Type: models.WalletTypeRegularPoint, Amount: 25,
	})
	require.NoError(t, err)

	directSvc, directRepo := newTestService(t)
	seedWallet(directRepo, "u-1", models.WalletTypeRegularPoint, 100, 0)
	direct, err := directSvc.AdjustBalance(ctx, AdjustRequest{
		UserID: "u-1", Type: models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodDecrement, Amount: 25,
	})
	require.NoError(t, err)

	require.Equal(t, direct.History.BalanceBefore, consumed.History.BalanceBefore)
	require.Equal(t, direct.History.BalanceAfter, consumed.History.BalanceAfter)
	require.Equal(t, direct.History.PointsDelta, consumed.History.PointsDelta)
	require.Equal(t, direct.History.ChangeMethod, consumed.History.ChangeMethod)
}

func TestAdjustBalance_KeepsCallerBatchIDAndCleansMeta(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodIncrement,
		Amount:       10,
		Context: ChangeContext{
			RequestBatchID: "batch-42",
			Meta:           map[string]string{"order_id": "o-1", "note": ""},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "batch-42", res.History.RequestBatchID)
	require.Equal(t, models.MetaMap{"order_id": "o-1"}, res.History.Meta)
}

func TestGetWallet_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetWallet(context.Background(), "u-1", models.WalletTypeRegularPoint)
	require.ErrorIs(t, err, domainerr.ErrWalletNotFound)
}

func TestGetHistory_FiltersAndPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.AdjustBalance(ctx, AdjustRequest{
			UserID: "u-1", Type: models.WalletTypeRegularPoint,
			ChangeMethod: models.ChangeMethodIncrement, Amount: 10,
			Context: ChangeContext{RequestBatchID: "batch-a"},
		})
		require.NoError(t, err)
	}
	_, err := svc.AdjustBalance(ctx, AdjustRequest{
		UserID: "u-1", Type: models.WalletTypeRegularCoin,
		ChangeMethod: models.ChangeMethodIncrement, Amount: 10,
	})
	require.NoError(t, err)

	pointType := models.WalletTypeRegularPoint
	rows, total, err := svc.GetHistory(ctx, HistoryQuery{
		UserID: "u-1",
		Type:   &pointType,
		Limit:  2,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, models.WalletTypeRegularPoint, row.Type)
	}

	rows, total, err = svc.GetHistory(ctx, HistoryQuery{
		UserID:         "u-1",
		RequestBatchID: "batch-a",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
}

func TestWithTx_RunsOnCallerTransaction(t *testing.T) {
	svc, repo := newTestService(t)
	seedWallet(repo, "u-1", models.WalletTypeRegularPoint, 100, 0)

	bound := svc.WithTx(nil)
	_, err := bound.AdjustBalance(context.Background(), AdjustRequest{
		UserID:       "u-1",
		Type:         models.WalletTypeRegularPoint,
		ChangeMethod: models.ChangeMethodDecrement,
		Amount:       40,
	})
	require.NoError(t, err)
	require.Zero(t, repo.transactionCalls, "bound facade must not open its own transaction")
	requireWalletState(t, repo, "u-1", models.WalletTypeRegularPoint, 60, 0)
}
