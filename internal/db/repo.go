package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"symptrack/pkg"

	"github.com/google/uuid"
)

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute

	// MaxListLimit caps ListRecent regardless of what callers ask for.
	MaxListLimit = 200
)

// Repository journals completed analyses.  The analysis path never reads
// from it; it exists for operators reviewing what the service answered.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// Ping checks database reachability for the health endpoint.
func (r *Repository) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

// RecordAnalysis stores one successful analysis and returns the stored row.
func (r *Repository) RecordAnalysis(ctx context.Context, symptoms string, res *pkg.AnalysisResult) (*pkg.AnalysisRecord, error) {
	rec := pkg.AnalysisRecord{
		ID:       uuid.New().String(),
		Symptoms: symptoms,
		Disease:  res.Disease,
		Risk:     res.Risk,
		Analysis: res.Analysis,
	}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO analyses (id, symptoms, disease, risk, analysis, full_response)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at`,
		rec.ID, symptoms, res.Disease, string(res.Risk), res.Analysis, res.FullResponse,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return &rec, nil
}

// ListRecent returns up to limit analyses, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]pkg.AnalysisRecord, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, symptoms, disease, risk, analysis, created_at
         FROM analyses
         ORDER BY created_at DESC
         LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]pkg.AnalysisRecord, 0, limit)
	for rows.Next() {
		var rec pkg.AnalysisRecord
		var risk string
		if err := rows.Scan(&rec.ID, &rec.Symptoms, &rec.Disease, &risk, &rec.Analysis, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Risk = pkg.RiskLevel(risk)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RiskCounts tallies journalled analyses per risk level since the given
// time.  Levels with no rows are reported as zero.
func (r *Repository) RiskCounts(ctx context.Context, since time.Time) (map[pkg.RiskLevel]int, error) {
	counts := map[pkg.RiskLevel]int{pkg.RiskHigh: 0, pkg.RiskLow: 0, pkg.RiskNeutral: 0}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT risk, COUNT(*)
         FROM analyses
         WHERE created_at >= $1
         GROUP BY risk`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var risk string
		var n int
		if err := rows.Scan(&risk, &n); err != nil {
			return nil, err
		}
		counts[pkg.RiskLevel(risk)] = n
	}
	return counts, rows.Err()
}
