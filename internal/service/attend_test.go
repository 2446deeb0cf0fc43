package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/punchcardlabs/punchcard/internal/cache"
	"github.com/punchcardlabs/punchcard/internal/domain"
)

type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockIdentityRepository) GetByName(ctx context.Context, name string) (*domain.Identity, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) List(ctx context.Context) ([]domain.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) SetEnrolled(ctx context.Context, id uuid.UUID, enrolled bool) error {
	args := m.Called(ctx, id, enrolled)
	return args.Error(0)
}

type MockPunchRepository struct {
	mock.Mock
}

func (m *MockPunchRepository) ListEventsForDay(ctx context.Context, identityID uuid.UUID, day domain.DayKey) ([]domain.PunchEvent, error) {
	args := m.Called(ctx, identityID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PunchEvent), args.Error(1)
}

func (m *MockPunchRepository) ListEventsRange(ctx context.Context, identityID uuid.UUID, from, to domain.DayKey) ([]domain.PunchEvent, error) {
	args := m.Called(ctx, identityID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PunchEvent), args.Error(1)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *domain.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

type MockFaceMatcher struct {
	mock.Mock
}

func (m *MockFaceMatcher) Identify(region *image.Gray) (domain.RecognitionResult, error) {
	args := m.Called(region)
	return args.Get(0).(domain.RecognitionResult), args.Error(1)
}

func (m *MockFaceMatcher) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockLivenessChecker struct {
	mock.Mock
}

func (m *MockLivenessChecker) AssessSequence(ctx context.Context, region *image.Gray, frames [][]byte) domain.LivenessVerdict {
	args := m.Called(ctx, region, frames)
	return args.Get(0).(domain.LivenessVerdict)
}

type MockPuncher struct {
	mock.Mock
}

func (m *MockPuncher) Punch(ctx context.Context, identity domain.Identity, punchType domain.PunchType, at time.Time) (*domain.PunchEvent, error) {
	args := m.Called(ctx, identity, punchType, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PunchEvent), args.Error(1)
}

// framePNG encodes a deterministic textured capture large enough for
// preprocessing.
func framePNG(seed int) []byte {
	img := image.NewGray(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := (x*31 + y*17 + seed*97 + (x*y+seed)%53) % 256
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func liveVerdict() domain.LivenessVerdict {
	return domain.LivenessVerdict{IsLive: true, Score: 250, Signals: []string{"sharpness"}}
}

type attendMocks struct {
	identityRepo *MockIdentityRepository
	punchRepo    *MockPunchRepository
	attemptRepo  *MockAttemptRepository
	matcher      *MockFaceMatcher
	liveness     *MockLivenessChecker
	machine      *MockPuncher
	statusCache  *cache.StatusCache
}

func newAttendService() (*AttendService, *attendMocks) {
	m := &attendMocks{
		identityRepo: new(MockIdentityRepository),
		punchRepo:    new(MockPunchRepository),
		attemptRepo:  new(MockAttemptRepository),
		matcher:      new(MockFaceMatcher),
		liveness:     new(MockLivenessChecker),
		machine:      new(MockPuncher),
		statusCache:  cache.NewStatusCache(),
	}
	svc := NewAttendService(
		m.identityRepo, m.punchRepo, m.attemptRepo,
		m.matcher, m.liveness, m.machine,
		m.statusCache, time.UTC,
	)
	return svc, m
}

func TestAttendService_Punch_Accepted(t *testing.T) {
	svc, m := newAttendService()
	identity := domain.Identity{ID: uuid.New(), Name: "alice", Enrolled: true}
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	event := &domain.PunchEvent{ID: uuid.New(), IdentityID: identity.ID, Identity: "alice", Type: domain.PunchIn, OccurredAt: at, DayKey: "2026-03-02"}

	m.liveness.On("AssessSequence", mock.Anything, mock.Anything, mock.Anything).Return(liveVerdict())
	m.matcher.On("Identify", mock.Anything).Return(domain.RecognitionResult{Identity: "alice", Distance: 41.3, Accepted: true}, nil)
	m.identityRepo.On("GetByName", mock.Anything, "alice").Return(&identity, nil)
	m.machine.On("Punch", mock.Anything, identity, domain.PunchIn, at).Return(event, nil)

	var audited *domain.Attempt
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		audited = args.Get(1).(*domain.Attempt)
	}).Return(nil)

	// A cached status for the day must be dropped by the accepted punch.
	m.statusCache.Set(identity.ID, "2026-03-02", domain.DailyStatus{Identity: "alice"})

	result, err := svc.Punch(context.Background(), PunchRequest{
		Image: framePNG(1),
		Type:  domain.PunchIn,
		At:    at,
	})
	require.NoError(t, err)
	assert.Equal(t, event, result.Event)
	assert.Equal(t, 41.3, result.Distance)

	require.NotNil(t, audited)
	assert.True(t, audited.Accepted)
	assert.Equal(t, "alice", audited.Identity)
	require.NotNil(t, audited.Distance)
	assert.Equal(t, 41.3, *audited.Distance)

	_, cached := m.statusCache.Get(identity.ID, "2026-03-02")
	assert.False(t, cached, "accepted punch must invalidate the day's cached status")
}

func TestAttendService_Punch_InvalidImage(t *testing.T) {
	svc, m := newAttendService()
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Punch(context.Background(), PunchRequest{
		Image: []byte("not an image"),
		Type:  domain.PunchIn,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
	m.machine.AssertNotCalled(t, "Punch")
}

func TestAttendService_Punch_LivenessFailed(t *testing.T) {
	svc, m := newAttendService()
	m.liveness.On("AssessSequence", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.LivenessVerdict{IsLive: false, Score: 12.5, Signals: []string{"sharpness"}})

	var audited *domain.Attempt
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		audited = args.Get(1).(*domain.Attempt)
	}).Return(nil)

	_, err := svc.Punch(context.Background(), PunchRequest{Image: framePNG(1), Type: domain.PunchIn})
	assert.ErrorIs(t, err, domain.ErrLivenessFailed)

	require.NotNil(t, audited)
	assert.False(t, audited.Accepted)
	assert.Equal(t, domain.ErrLivenessFailed.Code, audited.Reason)
	require.NotNil(t, audited.LivenessScore)
	assert.Equal(t, 12.5, *audited.LivenessScore)
	m.matcher.AssertNotCalled(t, "Identify")
}

func TestAttendService_Punch_LowConfidence(t *testing.T) {
	svc, m := newAttendService()
	m.liveness.On("AssessSequence", mock.Anything, mock.Anything, mock.Anything).Return(liveVerdict())
	m.matcher.On("Identify", mock.Anything).
		Return(domain.RecognitionResult{Distance: 93.7}, domain.ErrLowConfidence)

	var audited *domain.Attempt
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		audited = args.Get(1).(*domain.Attempt)
	}).Return(nil)

	_, err := svc.Punch(context.Background(), PunchRequest{Image: framePNG(1), Type: domain.PunchIn})
	assert.ErrorIs(t, err, domain.ErrLowConfidence)

	require.NotNil(t, audited)
	assert.Equal(t, domain.ErrLowConfidence.Code, audited.Reason)
	require.NotNil(t, audited.Distance)
	assert.Equal(t, 93.7, *audited.Distance)
	m.machine.AssertNotCalled(t, "Punch")
}

func TestAttendService_Punch_HintMismatch(t *testing.T) {
	svc, m := newAttendService()
	m.liveness.On("AssessSequence", mock.Anything, mock.Anything, mock.Anything).Return(liveVerdict())
	m.matcher.On("Identify", mock.Anything).
		Return(domain.RecognitionResult{Identity: "bob", Distance: 35, Accepted: true}, nil)

	var audited *domain.Attempt
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		audited = args.Get(1).(*domain.Attempt)
	}).Return(nil)

	_, err := svc.Punch(context.Background(), PunchRequest{
		Image:    framePNG(1),
		Type:     domain.PunchIn,
		Identity: "alice",
	})
	assert.ErrorIs(t, err, domain.ErrLowConfidence)

	require.NotNil(t, audited)
	assert.False(t, audited.Accepted)
	assert.Equal(t, "bob", audited.Identity)
	m.machine.AssertNotCalled(t, "Punch")
}

func TestAttendService_Punch_CooldownRejection(t *testing.T) {
	svc, m := newAttendService()
	identity := domain.Identity{ID: uuid.New(), Name: "alice"}

	m.liveness.On("AssessSequence", mock.Anything, mock.Anything, mock.Anything).Return(liveVerdict())
	m.matcher.On("Identify", mock.Anything).Return(domain.RecognitionResult{Identity: "alice", Distance: 30, Accepted: true}, nil)
	m.identityRepo.On("GetByName", mock.Anything, "alice").Return(&identity, nil)
	m.machine.On("Punch", mock.Anything, identity, domain.PunchOut, mock.Anything).Return(nil, domain.ErrCooldown)

	var audited *domain.Attempt
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		audited = args.Get(1).(*domain.Attempt)
	}).Return(nil)

	_, err := svc.Punch(context.Background(), PunchRequest{Image: framePNG(1), Type: domain.PunchOut})
	assert.ErrorIs(t, err, domain.ErrCooldown)

	require.NotNil(t, audited)
	assert.False(t, audited.Accepted)
	assert.Equal(t, domain.ErrCooldown.Code, audited.Reason)
	require.NotNil(t, audited.IdentityID)
	assert.Equal(t, identity.ID, *audited.IdentityID)
}

func TestAttendService_Punch_AuditFailureDoesNotFailRequest(t *testing.T) {
	svc, m := newAttendService()
	identity := domain.Identity{ID: uuid.New(), Name: "alice"}
	event := &domain.PunchEvent{ID: uuid.New(), IdentityID: identity.ID, DayKey: "2026-03-02"}

	m.liveness.On("AssessSequence", mock.Anything, mock.Anything, mock.Anything).Return(liveVerdict())
	m.matcher.On("Identify", mock.Anything).Return(domain.RecognitionResult{Identity: "alice", Distance: 30, Accepted: true}, nil)
	m.identityRepo.On("GetByName", mock.Anything, "alice").Return(&identity, nil)
	m.machine.On("Punch", mock.Anything, identity, domain.PunchIn, mock.Anything).Return(event, nil)
	m.attemptRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Punch(context.Background(), PunchRequest{Image: framePNG(1), Type: domain.PunchIn})
	assert.NoError(t, err)
}

func TestAttendService_Status_CachesComputedView(t *testing.T) {
	svc, m := newAttendService()
	identity := domain.Identity{ID: uuid.New(), Name: "alice"}
	day := domain.DayKey("2026-03-02")
	events := []domain.PunchEvent{
		{Type: domain.PunchIn, OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), DayKey: day},
		{Type: domain.PunchOut, OccurredAt: time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), DayKey: day},
	}

	m.identityRepo.On("GetByName", mock.Anything, "alice").Return(&identity, nil)
	m.punchRepo.On("ListEventsForDay", mock.Anything, identity.ID, day).Return(events, nil).Once()

	status, err := svc.Status(context.Background(), "alice", day)
	require.NoError(t, err)
	assert.Equal(t, int64(8*3600), status.WorkedSec)
	assert.False(t, status.Open)

	// Second read is served from cache; the single ListEventsForDay
	// expectation would fail otherwise.
	again, err := svc.Status(context.Background(), "alice", day)
	require.NoError(t, err)
	assert.Equal(t, status.WorkedSec, again.WorkedSec)
	m.punchRepo.AssertExpectations(t)
}

func TestAttendService_Status_UnknownIdentity(t *testing.T) {
	svc, m := newAttendService()
	m.identityRepo.On("GetByName", mock.Anything, "ghost").Return(nil, domain.ErrIdentityNotFound)

	_, err := svc.Status(context.Background(), "ghost", "2026-03-02")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestAttendService_History_MostRecentFirst(t *testing.T) {
	svc, m := newAttendService()
	identity := domain.Identity{ID: uuid.New(), Name: "alice"}
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	events := []domain.PunchEvent{
		{Type: domain.PunchIn, OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), DayKey: "2026-03-02"},
		{Type: domain.PunchOut, OccurredAt: time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), DayKey: "2026-03-02"},
		{Type: domain.PunchIn, OccurredAt: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), DayKey: "2026-03-03"},
	}

	m.identityRepo.On("GetByName", mock.Anything, "alice").Return(&identity, nil)
	m.punchRepo.On("ListEventsRange", mock.Anything, identity.ID, domain.DayKey("2026-02-25"), domain.DayKey("2026-03-03")).
		Return(events, nil)

	history, err := svc.History(context.Background(), "alice", 7, now)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.DayKey("2026-03-03"), history[0].DayKey)
	assert.True(t, history[0].Open)
	assert.Equal(t, domain.DayKey("2026-03-02"), history[1].DayKey)
	assert.Equal(t, int64(8*3600), history[1].WorkedSec)
}
