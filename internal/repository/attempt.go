package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

type AttemptRepository struct {
	pool PgxPool
}

func NewAttemptRepository(pool PgxPool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.Attempt) error {
	query := `
		INSERT INTO attempts (id, identity_id, requested_type, accepted, reason, distance, liveness_score, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		attempt.ID,
		attempt.IdentityID,
		attempt.RequestedType,
		attempt.Accepted,
		attempt.Reason,
		attempt.Distance,
		attempt.LivenessScore,
		attempt.LatencyMs,
	).Scan(&attempt.CreatedAt)

	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}

	return nil
}
