package models

import "time"

// ChangeMethod describes how an adjustment was applied to a balance.
type ChangeMethod string

const (
	ChangeMethodIncrement ChangeMethod = "INCREMENT"
	ChangeMethodDecrement ChangeMethod = "DECREMENT"
	ChangeMethodSet       ChangeMethod = "SET"
)

// Valid reports whether m is a supported change method.
func (m ChangeMethod) Valid() bool {
	switch m {
	case ChangeMethodIncrement, ChangeMethodDecrement, ChangeMethodSet:
		return true
	}
	return false
}

// SourceType classifies who initiated a balance change.
type SourceType string

const (
	SourceTypeUserAction  SourceType = "user_action"
	SourceTypeAdminAction SourceType = "admin_action"
	SourceTypeSystem      SourceType = "system"
)

// Valid reports whether s is a supported source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeUserAction, SourceTypeAdminAction, SourceTypeSystem:
		return true
	}
	return false
}

// WalletHistory is one row of the append-only audit trail. A row is written
// exactly once per completed balance change and is never updated or deleted;
// no code path in this repository issues an UPDATE or DELETE against it.
//
// PointsDelta holds the applied magnitude; for SET it holds the resulting
// absolute balance instead.
type WalletHistory struct {
	ID             uint         `gorm:"primarykey" json:"id"`
	UserID         string       `gorm:"index:idx_wallet_histories_user_type;not null" json:"user_id"`
	Type           WalletType   `gorm:"index:idx_wallet_histories_user_type;not null" json:"type"`
	ChangeMethod   ChangeMethod `gorm:"not null" json:"change_method"`
	PointsDelta    int64        `gorm:"not null" json:"points_delta"`
	BalanceBefore  int64        `gorm:"not null" json:"balance_before"`
	BalanceAfter   int64        `gorm:"not null" json:"balance_after"`
	SourceType     SourceType   `gorm:"not null" json:"source_type"`
	RequestBatchID string       `gorm:"index" json:"request_batch_id"`
	Reason         string       `json:"reason"`
	Meta           MetaMap      `gorm:"type:jsonb" json:"meta"`
	CreatedAt      time.Time    `json:"created_at"`
}
