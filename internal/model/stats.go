package model

import (
	"time"

	"github.com/google/uuid"
)

// CategoryStats aggregates finished sessions for one flow and category.
type CategoryStats struct {
	Flow         Flow     `json:"flow"`
	Category     Category `json:"category"`
	Attempts     int64    `json:"attempts"`
	AverageScore float64  `json:"average_score"`
	PassRate     float64  `json:"pass_rate"`
}

// ResultRecord is the analytics row written for every finished session.
type ResultRecord struct {
	ID             uuid.UUID `json:"id"`
	Owner          string    `json:"owner"`
	Flow           Flow      `json:"flow"`
	Category       Category  `json:"category"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	TimedOut       bool      `json:"timed_out"`
	FinishedAt     time.Time `json:"finished_at"`
}

// NewResultRecord flattens a result for persistence.
func NewResultRecord(owner string, r SessionResult) ResultRecord {
	return ResultRecord{
		ID:             r.ID,
		Owner:          owner,
		Flow:           r.Flow,
		Category:       r.Category,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Passed:         r.Passed,
		TimedOut:       r.TimedOut,
		FinishedAt:     r.FinishedAt,
	}
}
