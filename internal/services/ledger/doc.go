/*
Package ledger implements the wallet balance state machine: balance
adjustment, two-phase fund reservation, and the append-only history trail
that records every balance change.

Every operation runs inside a database transaction and re-reads the wallet
row under a row-level exclusive lock before computing the next state, so
concurrent operations on the same (user, currency type) pair serialize at
the database. The wallet mutation and its history row commit as one unit.

Usage:

	svc := ledger.NewService(repo, cache, ledger.Config{}, nil)

	// Admin grant
	res, err := svc.AdjustBalance(ctx, ledger.AdjustRequest{
	    UserID:       "u-1",
	    Type:         models.WalletTypeRegularPoint,
	    ChangeMethod: models.ChangeMethodIncrement,
	    Amount:       500,
	    Context:      ledger.ChangeContext{SourceType: models.SourceTypeAdminAction, Reason: "campaign bonus"},
	})

	// Two-phase spend: earmark funds, then settle or abandon.
	_, err = svc.ReserveBalance(ctx, "u-1", models.WalletTypeRegularPoint, 30)
	res, err = svc.ConsumeReservedBalance(ctx, ledger.ConsumeRequest{...}) // or ReleaseReservation

Callers that need a wallet change to commit together with their own writes
bind the facade to their transaction:

	db.Transaction(func(tx *gorm.DB) error {
	    if err := orders.Create(tx, order); err != nil {
	        return err
	    }
	    _, err := svc.WithTx(tx).ConsumeReservedBalance(ctx, req)
	    return err
	})

Reservations earmark funds without touching the audit trail; only adjust and
consume write history rows. History rows are never updated or deleted.
*/
package ledger
