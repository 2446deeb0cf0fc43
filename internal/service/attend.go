package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/punchcardlabs/punchcard/internal/attendance"
	"github.com/punchcardlabs/punchcard/internal/cache"
	"github.com/punchcardlabs/punchcard/internal/domain"
	"github.com/punchcardlabs/punchcard/internal/imaging"
)

type IdentityRepositoryInterface interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByName(ctx context.Context, name string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	SetEnrolled(ctx context.Context, id uuid.UUID, enrolled bool) error
}

type PunchRepositoryInterface interface {
	ListEventsForDay(ctx context.Context, identityID uuid.UUID, day domain.DayKey) ([]domain.PunchEvent, error)
	ListEventsRange(ctx context.Context, identityID uuid.UUID, from, to domain.DayKey) ([]domain.PunchEvent, error)
}

type AttemptRepositoryInterface interface {
	Create(ctx context.Context, attempt *domain.Attempt) error
}

// FaceMatcher is the recognition surface the attendance flow consumes.
type FaceMatcher interface {
	Identify(region *image.Gray) (domain.RecognitionResult, error)
	Ready() bool
}

// LivenessChecker assesses whether the captured region is a live face.
type LivenessChecker interface {
	AssessSequence(ctx context.Context, region *image.Gray, frames [][]byte) domain.LivenessVerdict
}

// Puncher applies the attendance rules and appends accepted events.
type Puncher interface {
	Punch(ctx context.Context, identity domain.Identity, punchType domain.PunchType, at time.Time) (*domain.PunchEvent, error)
}

// PunchRequest is one clock-in/out attempt: the primary face crop,
// optional extra frames of the same capture for the blink signal, and
// the requested punch type. Identity is an optional hint from the
// kiosk; when set, the recognized identity must agree with it.
type PunchRequest struct {
	Image    []byte
	Frames   [][]byte
	Type     domain.PunchType
	Identity string
	At       time.Time
}

// PunchResult is the accepted outcome.
type PunchResult struct {
	Event    *domain.PunchEvent     `json:"event"`
	Distance float64                `json:"distance"`
	Liveness domain.LivenessVerdict `json:"liveness"`
}

type AttendService struct {
	identityRepo IdentityRepositoryInterface
	punchRepo    PunchRepositoryInterface
	attemptRepo  AttemptRepositoryInterface
	matcher      FaceMatcher
	liveness     LivenessChecker
	machine      Puncher
	statusCache  *cache.StatusCache
	loc          *time.Location
}

func NewAttendService(
	identityRepo IdentityRepositoryInterface,
	punchRepo PunchRepositoryInterface,
	attemptRepo AttemptRepositoryInterface,
	matcher FaceMatcher,
	liveness LivenessChecker,
	machine Puncher,
	statusCache *cache.StatusCache,
	loc *time.Location,
) *AttendService {
	if loc == nil {
		loc = time.Local
	}
	return &AttendService{
		identityRepo: identityRepo,
		punchRepo:    punchRepo,
		attemptRepo:  attemptRepo,
		matcher:      matcher,
		liveness:     liveness,
		machine:      machine,
		statusCache:  statusCache,
		loc:          loc,
	}
}

// Punch runs the full decision pipeline on one capture: preprocess,
// liveness, recognition, then the attendance rules. Every attempt is
// audited, accepted or not; the audit write never fails the request.
func (s *AttendService) Punch(ctx context.Context, req PunchRequest) (*PunchResult, error) {
	start := time.Now()
	at := req.At
	if at.IsZero() {
		at = start
	}

	audit := &domain.Attempt{RequestedType: req.Type}
	defer func() {
		audit.LatencyMs = time.Since(start).Milliseconds()
		// Audit log - error is intentionally not returned
		// The decision was already made; losing one audit row must not
		// turn an accepted punch into a failure
		_ = s.attemptRepo.Create(ctx, audit)
	}()

	region, err := s.preprocess(req.Image)
	if err != nil {
		return nil, s.reject(audit, err)
	}

	verdict := s.liveness.AssessSequence(ctx, region, req.Frames)
	audit.LivenessScore = &verdict.Score
	if !verdict.IsLive {
		return nil, s.reject(audit, domain.ErrLivenessFailed)
	}

	match, err := s.matcher.Identify(region)
	if match.Distance > 0 || match.Accepted {
		audit.Distance = &match.Distance
	}
	if err != nil {
		return nil, s.reject(audit, err)
	}
	audit.Identity = match.Identity

	if req.Identity != "" && req.Identity != match.Identity {
		return nil, s.reject(audit, domain.ErrLowConfidence.WithError(
			fmt.Errorf("recognized %q, caller expected %q", match.Identity, req.Identity)))
	}

	identity, err := s.identityRepo.GetByName(ctx, match.Identity)
	if err != nil {
		return nil, s.reject(audit, err)
	}
	audit.IdentityID = &identity.ID

	event, err := s.machine.Punch(ctx, *identity, req.Type, at)
	if err != nil {
		return nil, s.reject(audit, err)
	}

	s.statusCache.Invalidate(identity.ID, event.DayKey)

	audit.Accepted = true
	return &PunchResult{
		Event:    event,
		Distance: match.Distance,
		Liveness: verdict,
	}, nil
}

func (s *AttendService) preprocess(imageBytes []byte) (*image.Gray, error) {
	img, err := imaging.Decode(imageBytes)
	if err != nil {
		return nil, err
	}
	return imaging.Normalize(img)
}

// reject stamps the audit row with the rejection reason and passes the
// error through.
func (s *AttendService) reject(audit *domain.Attempt, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		audit.Reason = appErr.Code
	} else {
		audit.Reason = domain.ErrInternal.Code
	}
	return err
}

// Ready reports whether the matcher has at least one enrolled model,
// i.e. the service can produce accepted punches at all.
func (s *AttendService) Ready() bool {
	return s.matcher.Ready()
}

// Status returns the derived daily view for one identity, from cache
// when the day's event log has not changed since it was computed.
func (s *AttendService) Status(ctx context.Context, name string, day domain.DayKey) (*domain.DailyStatus, error) {
	identity, err := s.identityRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if status, ok := s.statusCache.Get(identity.ID, day); ok {
		return &status, nil
	}

	events, err := s.punchRepo.ListEventsForDay(ctx, identity.ID, day)
	if err != nil {
		return nil, err
	}

	status := attendance.ComputeDailyStatus(identity.Name, day, events)
	s.statusCache.Set(identity.ID, day, status)
	return &status, nil
}

// History returns the last n days of derived views, most recent first.
// Days without events are omitted.
func (s *AttendService) History(ctx context.Context, name string, days int, now time.Time) ([]domain.DailyStatus, error) {
	if days < 1 {
		days = 1
	}
	identity, err := s.identityRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	now = now.In(s.loc)
	to := domain.DayKeyAt(now, s.loc)
	from := domain.DayKeyAt(now.AddDate(0, 0, -(days-1)), s.loc)

	events, err := s.punchRepo.ListEventsRange(ctx, identity.ID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[domain.DayKey][]domain.PunchEvent)
	var order []domain.DayKey
	for _, ev := range events {
		if _, seen := byDay[ev.DayKey]; !seen {
			order = append(order, ev.DayKey)
		}
		byDay[ev.DayKey] = append(byDay[ev.DayKey], ev)
	}

	history := make([]domain.DailyStatus, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		day := order[i]
		history = append(history, attendance.ComputeDailyStatus(identity.Name, day, byDay[day]))
	}
	return history, nil
}
