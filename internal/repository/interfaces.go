package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

// PgxPool is the pool surface the repositories use, satisfied by both
// *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityRepositoryInterface defines operations for identity data access
type IdentityRepositoryInterface interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByName(ctx context.Context, name string) (*domain.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	SetEnrolled(ctx context.Context, id uuid.UUID, enrolled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SampleRepositoryInterface defines operations for face sample data access
type SampleRepositoryInterface interface {
	CreateBatch(ctx context.Context, samples []domain.FaceSample) error
	ListAll(ctx context.Context) ([]domain.FaceSample, error)
	CountByIdentity(ctx context.Context, identityID uuid.UUID) (int, error)
}

// PunchRepositoryInterface defines operations for the punch event log
type PunchRepositoryInterface interface {
	AppendEvent(ctx context.Context, event *domain.PunchEvent) error
	ListEventsForDay(ctx context.Context, identityID uuid.UUID, day domain.DayKey) ([]domain.PunchEvent, error)
	ListEventsRange(ctx context.Context, identityID uuid.UUID, from, to domain.DayKey) ([]domain.PunchEvent, error)
}

// AttemptRepositoryInterface defines operations for decision audit logging
type AttemptRepositoryInterface interface {
	Create(ctx context.Context, attempt *domain.Attempt) error
}
