package domain

import "time"

// StaffPerformanceRecord is the fully derived per-staff score row.
// It is recomputed from scratch on every relevant ticket event and
// never hand-edited.
type StaffPerformanceRecord struct {
	RowID           int64
	Rev             int64
	Username        string
	SolvedCount     int
	RatingCount     int
	AvgRating       float64
	AvgSpeedHours   float64
	SpeedScore      float64
	DelayCount      int
	DelayPenalty    float64
	TotalCases      int
	RatingHistogram [5]int
	EfficiencyScore float64
	ComputedAt      time.Time
}
