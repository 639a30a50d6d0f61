package model

import "time"

// Checkpoint sections. One watermark row per section.
const (
	SectionTransactions = "Transactions"
	SectionDailyStats   = "Daily_Stats"
	SectionWeeklyData   = "Weekly_Data"
)

// SyncCheckpoint marks how far a sync section has progressed.
type SyncCheckpoint struct {
	Section  string
	LastSync time.Time
}

// DailyStat is one per-(date, chain) aggregate row, fully recomputable from
// the canonical transactions plus the external metric providers.
type DailyStat struct {
	Date             time.Time
	ChainName        string
	SwapTransactions int64
	SwapVolume       float64
	SwapRevenue      float64
	SendTransactions int64
	SendVolume       float64
	CashTransactions int64
	CashVolume       float64
	CashRevenue      float64
	DappConnections  int64
	Referrals        int64
	AgentsDeployed   int64
	ActiveUsers      int64
	Revenue          float64
}

// WeeklyStat is one per-(week-start, metric) aggregate row.
type WeeklyStat struct {
	WeekStart time.Time
	Metric    string
	Value     float64
	Quantity  int64
}

// Weekly metric names.
const (
	MetricSwapRevenue         = "swap_revenue"
	MetricAvgRevPerActiveUser = "avg_rev_per_active_user"
)
