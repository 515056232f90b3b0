// Package cache provides a Redis-backed snapshot cache for wallet reads.
// Ledger operations never read balances from it; they re-read the wallet row
// under a database lock and only invalidate cached snapshots afterwards.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func walletKey(userID string, walletType models.WalletType) string {
	return fmt.Sprintf("wallet:%s:%s", userID, walletType)
}

// GetWallet returns the cached snapshot for one (user, currency type) pair,
// or nil when none is cached.
func (s *CacheService) GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	var wallet models.Wallet
	found, err := s.Get(ctx, walletKey(userID, walletType), &wallet)
	if err != nil || !found {
		return nil, err
	}
	return &wallet, nil
}

// SetWallet caches a wallet snapshot under its (user, currency type) key.
func (s *CacheService) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil {
		return nil
	}
	return s.Set(ctx, walletKey(wallet.UserID, wallet.Type), wallet)
}

// InvalidateWallet drops the cached snapshot after a committed mutation.
func (s *CacheService) InvalidateWallet(ctx context.Context, userID string, walletType models.WalletType) error {
	return s.Delete(ctx, walletKey(userID, walletType))
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
