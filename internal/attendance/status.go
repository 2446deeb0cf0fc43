package attendance

import (
	"time"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

// ComputeDailyStatus folds one identity's ordered events for one day
// into the derived view: worked and break durations over the closed
// intervals, the last recorded state, and whether the day is still
// open. An open trailing interval accrues nothing; the Open flag tells
// the caller the day is still running.
func ComputeDailyStatus(identity string, day domain.DayKey, events []domain.PunchEvent) domain.DailyStatus {
	var worked, onBreak time.Duration
	last := StateNone
	var segStart time.Time

	for _, ev := range events {
		switch last {
		case domain.PunchIn:
			worked += ev.OccurredAt.Sub(segStart)
		case domain.PunchBreak, domain.PunchLunch:
			onBreak += ev.OccurredAt.Sub(segStart)
		}
		last = ev.Type
		segStart = ev.OccurredAt
	}

	return domain.DailyStatus{
		Identity:  identity,
		DayKey:    day,
		Events:    events,
		LastType:  last,
		Worked:    worked,
		OnBreak:   onBreak,
		WorkedSec: int64(worked / time.Second),
		BreakSec:  int64(onBreak / time.Second),
		Open:      last == domain.PunchIn || last == domain.PunchBreak || last == domain.PunchLunch,
	}
}
