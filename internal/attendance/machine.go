// Package attendance decides whether an already-recognized user may
// record a punch right now, based on the day's ordered punch history:
// a cooldown window against rapid re-punches and a transition table
// for sequence legality. Decisions are serialized per identity.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

// DefaultCooldown is the window within which a second punch by the
// same identity is rejected, regardless of punch type.
const DefaultCooldown = 60 * time.Second

// Gateway is the persistence surface the state machine consumes.
// AppendEvent must re-check the cooldown under its own lock, so the
// decision holds even across multiple service instances.
type Gateway interface {
	ListEventsForDay(ctx context.Context, identityID uuid.UUID, day domain.DayKey) ([]domain.PunchEvent, error)
	AppendEvent(ctx context.Context, event *domain.PunchEvent) error
}

// Machine applies the attendance rules and appends accepted events.
type Machine struct {
	gateway  Gateway
	policy   Policy
	cooldown time.Duration
	loc      *time.Location
	locks    keyedMutex
}

// NewMachine creates a state machine. A nil policy, non-positive
// cooldown, or nil location fall back to the defaults.
func NewMachine(gateway Gateway, policy Policy, cooldown time.Duration, loc *time.Location) *Machine {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if loc == nil {
		loc = time.Local
	}
	return &Machine{
		gateway:  gateway,
		policy:   policy,
		cooldown: cooldown,
		loc:      loc,
	}
}

// Punch records an attendance event for the identity at the given
// instant, after checking the cooldown window and sequence legality
// against the persisted history. Rejections return Cooldown or
// InvalidSequence and write nothing.
//
// The check and the write run under a per-identity lock, so concurrent
// punches for the same user resolve to exactly one accepted event.
func (m *Machine) Punch(ctx context.Context, identity domain.Identity, punchType domain.PunchType, at time.Time) (*domain.PunchEvent, error) {
	at = at.In(m.loc)
	day := domain.DayKeyAt(at, m.loc)

	m.locks.lock(identity.ID)
	defer m.locks.unlock(identity.ID)

	today, err := m.gateway.ListEventsForDay(ctx, identity.ID, day)
	if err != nil {
		return nil, err
	}

	recent := today
	if m.windowCrossesMidnight(at) {
		yesterday, err := m.gateway.ListEventsForDay(ctx, identity.ID, day.Previous())
		if err != nil {
			return nil, err
		}
		recent = append(yesterday, today...)
	}

	cutoff := at.Add(-m.cooldown)
	for _, ev := range recent {
		if !ev.OccurredAt.Before(cutoff) && !ev.OccurredAt.After(at) {
			return nil, domain.ErrCooldown.WithError(
				fmt.Errorf("last %s punch at %s, cooldown %s", ev.Type, ev.OccurredAt.Format(time.RFC3339), m.cooldown))
		}
	}

	// Sequence state resets at the day boundary: only today's events
	// determine the last state.
	last := StateNone
	if len(today) > 0 {
		last = today[len(today)-1].Type
	}
	if !m.policy.Allows(last, punchType) {
		return nil, domain.ErrInvalidSequence.WithError(
			fmt.Errorf("cannot punch %s after %s", punchType, stateLabel(last)))
	}

	event := &domain.PunchEvent{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		Identity:   identity.Name,
		Type:       punchType,
		OccurredAt: at,
		DayKey:     day,
	}
	if err := m.gateway.AppendEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// windowCrossesMidnight reports whether the cooldown window reaches
// back into the previous calendar day.
func (m *Machine) windowCrossesMidnight(at time.Time) bool {
	startOfDay := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, m.loc)
	return at.Sub(startOfDay) < m.cooldown
}

func stateLabel(t domain.PunchType) string {
	if t == StateNone {
		return "start of day"
	}
	return string(t)
}
