package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PunchType is the kind of attendance event a user can record.
type PunchType string

const (
	PunchIn    PunchType = "in"
	PunchOut   PunchType = "out"
	PunchBreak PunchType = "break"
	PunchLunch PunchType = "lunch"
)

// ParsePunchType validates a caller-supplied punch type.
func ParsePunchType(s string) (PunchType, error) {
	switch PunchType(s) {
	case PunchIn, PunchOut, PunchBreak, PunchLunch:
		return PunchType(s), nil
	}
	return "", ErrValidationFailed.WithError(fmt.Errorf("unknown punch type %q", s))
}

// DayKey groups a user's punch events by calendar date in the
// deployment's local time zone.
type DayKey string

const dayKeyLayout = "2006-01-02"

// DayKeyAt derives the day key for an instant in the given zone.
func DayKeyAt(t time.Time, loc *time.Location) DayKey {
	return DayKey(t.In(loc).Format(dayKeyLayout))
}

// ParseDayKey validates a YYYY-MM-DD string.
func ParseDayKey(s string) (DayKey, error) {
	if _, err := time.Parse(dayKeyLayout, s); err != nil {
		return "", ErrValidationFailed.WithError(fmt.Errorf("invalid date %q: want YYYY-MM-DD", s))
	}
	return DayKey(s), nil
}

// Previous returns the preceding calendar date. Used when the cooldown
// window crosses midnight.
func (d DayKey) Previous() DayKey {
	t, err := time.Parse(dayKeyLayout, string(d))
	if err != nil {
		return d
	}
	return DayKey(t.AddDate(0, 0, -1).Format(dayKeyLayout))
}

// PunchEvent is one accepted attendance event. Immutable once written.
type PunchEvent struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"-"`
	Identity   string    `json:"identity"`
	Type       PunchType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	DayKey     DayKey    `json:"day_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// DailyStatus is the derived view over one identity's events for one
// day. It is recomputed from the event log, never stored.
type DailyStatus struct {
	Identity  string        `json:"identity"`
	DayKey    DayKey        `json:"day_key"`
	Events    []PunchEvent  `json:"events"`
	LastType  PunchType     `json:"last_type,omitempty"`
	Worked    time.Duration `json:"-"`
	OnBreak   time.Duration `json:"-"`
	WorkedSec int64         `json:"worked_seconds"`
	BreakSec  int64         `json:"break_seconds"`
	Open      bool          `json:"open"` // still punched in (or on break) at end of data
}

// Attempt is the audit record of a single decision, accepted or not.
// Written best-effort after the verdict; never blocks the request.
type Attempt struct {
	ID            uuid.UUID  `json:"id"`
	IdentityID    *uuid.UUID `json:"-"`
	Identity      string     `json:"identity,omitempty"`
	RequestedType PunchType  `json:"requested_type"`
	Accepted      bool       `json:"accepted"`
	Reason        string     `json:"reason,omitempty"`
	Distance      *float64   `json:"distance,omitempty"`
	LivenessScore *float64   `json:"liveness_score,omitempty"`
	LatencyMs     int64      `json:"latency_ms"`
	CreatedAt     time.Time  `json:"created_at"`
}
