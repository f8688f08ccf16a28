package dto

import "time"

// PerformanceResponse is the derived score card for one staff member.
type PerformanceResponse struct {
	Username        string    `json:"username"`
	SolvedCount     int       `json:"solved_count"`
	RatingCount     int       `json:"rating_count"`
	AvgRating       float64   `json:"avg_rating"`
	AvgSpeedHours   float64   `json:"avg_speed_hours"`
	SpeedScore      float64   `json:"speed_score"`
	DelayCount      int       `json:"delay_count"`
	DelayPenalty    float64   `json:"delay_penalty"`
	TotalCases      int       `json:"total_cases"`
	RatingHistogram [5]int    `json:"rating_histogram"`
	EfficiencyScore float64   `json:"efficiency_score"`
	Rank            int       `json:"rank"`
	ComputedAt      time.Time `json:"computed_at"`
}

// SweepResponse acknowledges a manually triggered sweep.
type SweepResponse struct {
	Sweep     string    `json:"sweep"`
	StartedAt time.Time `json:"started_at"`
}
