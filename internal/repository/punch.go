package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

type PunchRepository struct {
	pool   PgxPool
	window time.Duration
}

// NewPunchRepository creates the punch event log access layer. The
// window is the cooldown re-checked inside the guarded append.
func NewPunchRepository(pool PgxPool, window time.Duration) *PunchRepository {
	return &PunchRepository{pool: pool, window: window}
}

// AppendEvent inserts one punch event. The insert runs in a
// transaction holding a per-identity advisory lock and re-checks the
// cooldown window, so the check-then-write stays atomic even across
// multiple service instances sharing the database.
func (r *PunchRepository) AppendEvent(ctx context.Context, event *domain.PunchEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin punch append: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		event.IdentityID,
	); err != nil {
		return fmt.Errorf("acquire punch lock: %w", err)
	}

	var conflicting bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM punch_events
			WHERE identity_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		)
	`, event.IdentityID, event.OccurredAt.Add(-r.window), event.OccurredAt).Scan(&conflicting)
	if err != nil {
		return fmt.Errorf("recheck cooldown: %w", err)
	}
	if conflicting {
		return domain.ErrCooldown.WithError(
			fmt.Errorf("another punch landed within %s of %s", r.window, event.OccurredAt.Format(time.RFC3339)))
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO punch_events (id, identity_id, type, occurred_at, day_key, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`,
		event.ID,
		event.IdentityID,
		event.Type,
		event.OccurredAt,
		event.DayKey,
	).Scan(&event.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrIdentityNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrConstraintViolation.WithError(err)
		}
		return fmt.Errorf("append punch event: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PunchRepository) ListEventsForDay(ctx context.Context, identityID uuid.UUID, day domain.DayKey) ([]domain.PunchEvent, error) {
	query := `
		SELECT e.id, e.identity_id, i.name, e.type, e.occurred_at, e.day_key, e.created_at
		FROM punch_events e
		INNER JOIN identities i ON i.id = e.identity_id
		WHERE e.identity_id = $1 AND e.day_key = $2
		ORDER BY e.occurred_at
	`

	rows, err := r.pool.Query(ctx, query, identityID, day)
	if err != nil {
		return nil, fmt.Errorf("list punch events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *PunchRepository) ListEventsRange(ctx context.Context, identityID uuid.UUID, from, to domain.DayKey) ([]domain.PunchEvent, error) {
	query := `
		SELECT e.id, e.identity_id, i.name, e.type, e.occurred_at, e.day_key, e.created_at
		FROM punch_events e
		INNER JOIN identities i ON i.id = e.identity_id
		WHERE e.identity_id = $1 AND e.day_key >= $2 AND e.day_key <= $3
		ORDER BY e.occurred_at
	`

	rows, err := r.pool.Query(ctx, query, identityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list punch events range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.PunchEvent, error) {
	var events []domain.PunchEvent
	for rows.Next() {
		var event domain.PunchEvent
		if err := rows.Scan(
			&event.ID,
			&event.IdentityID,
			&event.Identity,
			&event.Type,
			&event.OccurredAt,
			&event.DayKey,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan punch event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
