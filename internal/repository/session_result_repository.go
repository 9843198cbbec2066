package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// SessionResultRepository handles session_results data access.
type SessionResultRepository struct {
	pool *pgxpool.Pool
}

// NewSessionResultRepository creates a new SessionResultRepository.
func NewSessionResultRepository(pool *pgxpool.Pool) *SessionResultRepository {
	return &SessionResultRepository{pool: pool}
}

// BulkInsert writes a batch of results in one statement. Rows already
// present are skipped so requeued payloads stay idempotent.
func (r *SessionResultRepository) BulkInsert(ctx context.Context, batch []model.ResultRecord) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, n)
	owners := make([]string, 0, n)
	flows := make([]string, 0, n)
	categories := make([]string, 0, n)
	scores := make([]int32, 0, n)
	totals := make([]int32, 0, n)
	passed := make([]bool, 0, n)
	timedOut := make([]bool, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, rec := range batch {
		ids = append(ids, rec.ID)
		owners = append(owners, rec.Owner)
		flows = append(flows, string(rec.Flow))
		categories = append(categories, string(rec.Category))
		scores = append(scores, int32(rec.Score))
		totals = append(totals, int32(rec.TotalQuestions))
		passed = append(passed, rec.Passed)
		timedOut = append(timedOut, rec.TimedOut)
		finishedAts = append(finishedAts, rec.FinishedAt)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_results
			(id, client_id, flow, category, score, total_questions, passed, timed_out, finished_at)
		SELECT *
		FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::int[],
			$6::int[],
			$7::bool[],
			$8::bool[],
			$9::timestamptz[]
		)
		ON CONFLICT (id) DO NOTHING`,
		ids, owners, flows, categories, scores, totals, passed, timedOut, finishedAts,
	)
	return err
}

// Insert writes a single result.
func (r *SessionResultRepository) Insert(ctx context.Context, rec model.ResultRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_results
			(id, client_id, flow, category, score, total_questions, passed, timed_out, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Owner, string(rec.Flow), string(rec.Category), rec.Score, rec.TotalQuestions,
		rec.Passed, rec.TimedOut, rec.FinishedAt,
	)
	return err
}

// Stats aggregates results per flow and category. An empty flow covers all
// flows.
func (r *SessionResultRepository) Stats(ctx context.Context, flow model.Flow) ([]model.CategoryStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT flow, category,
		        COUNT(*) AS attempts,
		        COALESCE(AVG(score::float8 / NULLIF(total_questions, 0)), 0) AS average_score,
		        COALESCE(AVG(CASE WHEN passed THEN 1.0 ELSE 0.0 END), 0)::float8 AS pass_rate
		 FROM session_results
		 WHERE $1 = '' OR flow = $1
		 GROUP BY flow, category
		 ORDER BY flow, category`, string(flow),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.CategoryStats{}
	for rows.Next() {
		var s model.CategoryStats
		if err := rows.Scan(&s.Flow, &s.Category, &s.Attempts, &s.AverageScore, &s.PassRate); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
