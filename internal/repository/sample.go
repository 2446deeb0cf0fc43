package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

type SampleRepository struct {
	pool PgxPool
}

func NewSampleRepository(pool PgxPool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

// CreateBatch writes an enrollment batch atomically: either every
// sample lands or none does.
func (r *SampleRepository) CreateBatch(ctx context.Context, samples []domain.FaceSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sample batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO face_samples (id, identity_id, descriptor, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`

	for i := range samples {
		sample := &samples[i]
		if sample.ID == uuid.Nil {
			sample.ID = uuid.New()
		}

		err := tx.QueryRow(ctx, query,
			sample.ID,
			sample.IdentityID,
			pgvector.NewVector(sample.Descriptor),
		).Scan(&sample.CreatedAt)

		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrIdentityNotFound
			}
			return fmt.Errorf("create face sample: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListAll returns every stored sample with its identity name, the
// input for a full model refit.
func (r *SampleRepository) ListAll(ctx context.Context) ([]domain.FaceSample, error) {
	query := `
		SELECT s.id, s.identity_id, i.name, s.descriptor, s.created_at
		FROM face_samples s
		INNER JOIN identities i ON i.id = s.identity_id
		ORDER BY i.name, s.created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list face samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.FaceSample
	for rows.Next() {
		var sample domain.FaceSample
		var descriptor pgvector.Vector
		if err := rows.Scan(
			&sample.ID,
			&sample.IdentityID,
			&sample.Identity,
			&descriptor,
			&sample.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan face sample: %w", err)
		}
		sample.Descriptor = descriptor.Slice()
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

func (r *SampleRepository) CountByIdentity(ctx context.Context, identityID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM face_samples
		WHERE identity_id = $1
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, identityID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count face samples: %w", err)
	}

	return count, nil
}
