package models

import "time"

// DashboardSummary aggregates fleet and inspection figures.
type DashboardSummary struct {
	LaddersByStatus    map[LadderStatus]int  `json:"ladders_by_status"`
	TotalLadders       int                   `json:"total_ladders"`
	OverdueLadders     int                   `json:"overdue_ladders"`
	DueSoonLadders     int                   `json:"due_soon_ladders"`
	DueWindowDays      int                   `json:"due_window_days"`
	RecentResults      map[OverallResult]int `json:"recent_results"`
	RecentWindowDays   int                   `json:"recent_window_days"`
	OpenOverdueRepairs int                   `json:"open_overdue_repairs"`
	PendingApprovals   int                   `json:"pending_approvals"`
	GeneratedAt        time.Time             `json:"generated_at"`
}

// StatusCount is a grouped count row.
type StatusCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// SystemMetrics is a point-in-time view of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	InspectionsRecorded      uint64    `json:"inspections_recorded"`
	FailedInspections        uint64    `json:"failed_inspections"`
	LoginFailures            uint64    `json:"login_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
