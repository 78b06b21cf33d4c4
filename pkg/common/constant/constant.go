package constant

import "time"

const (
	DefaultEnvironment   = "development"
	DefaultSubjectPrefix = "toncenter.tx"

	// TonCenter v3 caps a transactions page at 1000 records.
	MaxTransactionsPageSize = 1000
	DefaultWatchBatchSize   = 100
	DefaultPollInterval     = 10 * time.Second

	TonCursorKeyPrefix = "ton/cursor/"
	// TonTrackedKey holds the addresses added at runtime, on top of the configured ones.
	TonTrackedKey = "ton/tracked"
)
