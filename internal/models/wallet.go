package models

import (
	"time"
)

// WalletType identifies one of the closed set of ledger currencies.
type WalletType string

const (
	WalletTypeRegularPoint   WalletType = "regular_point"
	WalletTypeTemporaryPoint WalletType = "temporary_point"
	WalletTypeRegularCoin    WalletType = "regular_coin"
)

// WalletTypes lists every supported currency type.
var WalletTypes = []WalletType{
	WalletTypeRegularPoint,
	WalletTypeTemporaryPoint,
	WalletTypeRegularCoin,
}

// Valid reports whether t is a supported currency type.
func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeRegularPoint, WalletTypeTemporaryPoint, WalletTypeRegularCoin:
		return true
	}
	return false
}

// Wallet holds the balance state for one (user, currency type) pair.
// LockedBalance is the portion of Balance held by active reservations;
// 0 <= LockedBalance <= Balance must hold after every committed operation.
// Rows are created lazily on first use and never deleted.
type Wallet struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	UserID        string     `gorm:"uniqueIndex:idx_wallets_user_type;not null" json:"user_id"`
	Type          WalletType `gorm:"uniqueIndex:idx_wallets_user_type;not null" json:"type"`
	Balance       int64      `gorm:"not null;default:0" json:"balance"`
	LockedBalance int64      `gorm:"not null;default:0" json:"locked_balance"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Available returns the spendable portion of the balance. Reserved funds
// stay locked until they are consumed or released.
func (w *Wallet) Available() int64 {
	return w.Balance - w.LockedBalance
}
