package ledger

import (
	"time"

	"tally/internal/models"
)

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordBalanceChange(userID string, walletType models.WalletType, before, after int64)
	RecordError(operation, code string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)               {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)                        {}
func (n *NoopMetricsCollector) RecordBalanceChange(string, models.WalletType, int64, int64) {}
func (n *NoopMetricsCollector) RecordError(string, string)                                  {}
