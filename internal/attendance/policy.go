package attendance

import (
	"github.com/punchcardlabs/punchcard/internal/domain"
)

// StateNone is the state of an identity with no punch recorded yet for
// the day. Each calendar day starts over from it.
const StateNone domain.PunchType = ""

// Policy is the declarative transition table for punch sequences: it
// maps the last recorded state of the day to the punch types legal
// next. Anything not listed is an invalid sequence.
type Policy map[domain.PunchType][]domain.PunchType

// DefaultPolicy encodes the standard workday rules: a day opens with
// IN, breaks and lunch interrupt work and resolve back to IN or OUT,
// and OUT can be followed by a new IN (split shifts). Repeating the
// same state without an intervening IN is forbidden.
func DefaultPolicy() Policy {
	return Policy{
		StateNone:         {domain.PunchIn},
		domain.PunchIn:    {domain.PunchOut, domain.PunchBreak, domain.PunchLunch},
		domain.PunchBreak: {domain.PunchIn, domain.PunchOut},
		domain.PunchLunch: {domain.PunchIn, domain.PunchOut},
		domain.PunchOut:   {domain.PunchIn},
	}
}

// Allows reports whether next is a legal punch after last.
func (p Policy) Allows(last, next domain.PunchType) bool {
	for _, t := range p[last] {
		if t == next {
			return true
		}
	}
	return false
}
