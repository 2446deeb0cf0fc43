package service

import (
	"context"
	"fmt"

	"github.com/punchcardlabs/punchcard/internal/domain"
	"github.com/punchcardlabs/punchcard/internal/imaging"
	"github.com/punchcardlabs/punchcard/internal/recognizer"
)

type SampleRepositoryInterface interface {
	CreateBatch(ctx context.Context, samples []domain.FaceSample) error
	ListAll(ctx context.Context) ([]domain.FaceSample, error)
}

// ModelFitter rebuilds the recognition models from stored descriptors.
type ModelFitter interface {
	FitDescriptors(byIdentity map[string][][]float32) error
}

// DefaultMinSamples is the minimum number of usable enrollment frames,
// below which the model would not generalize across captures.
const DefaultMinSamples = 10

type EnrollService struct {
	identityRepo IdentityRepositoryInterface
	sampleRepo   SampleRepositoryInterface
	fitter       ModelFitter
	minSamples   int
}

func NewEnrollService(
	identityRepo IdentityRepositoryInterface,
	sampleRepo SampleRepositoryInterface,
	fitter ModelFitter,
	minSamples int,
) *EnrollService {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &EnrollService{
		identityRepo: identityRepo,
		sampleRepo:   sampleRepo,
		fitter:       fitter,
		minSamples:   minSamples,
	}
}

// Register creates a new identity with no samples yet.
func (s *EnrollService) Register(ctx context.Context, name string, email, department *string) (*domain.Identity, error) {
	if name == "" {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("identity name is required"))
	}

	identity := &domain.Identity{
		Name:       name,
		Email:      email,
		Department: department,
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Enroll preprocesses the captured frames, stores their descriptors
// for the identity, and refits the recognition models. Frames that
// fail preprocessing are skipped; if fewer than the minimum survive,
// nothing is stored.
func (s *EnrollService) Enroll(ctx context.Context, name string, frames [][]byte) (*domain.Identity, int, error) {
	identity, err := s.identityRepo.GetByName(ctx, name)
	if err != nil {
		return nil, 0, err
	}

	samples := make([]domain.FaceSample, 0, len(frames))
	for _, frame := range frames {
		img, err := imaging.Decode(frame)
		if err != nil {
			continue
		}
		region, err := imaging.Normalize(img)
		if err != nil {
			continue
		}
		samples = append(samples, domain.FaceSample{
			IdentityID: identity.ID,
			Identity:   identity.Name,
			Descriptor: recognizer.Descriptor(region),
		})
	}

	if len(samples) < s.minSamples {
		return nil, 0, domain.ErrTooFewSamples.WithError(
			fmt.Errorf("%d usable of %d submitted, need %d", len(samples), len(frames), s.minSamples))
	}

	if err := s.sampleRepo.CreateBatch(ctx, samples); err != nil {
		return nil, 0, err
	}

	if err := s.identityRepo.SetEnrolled(ctx, identity.ID, true); err != nil {
		return nil, 0, err
	}
	identity.Enrolled = true

	if err := s.refit(ctx); err != nil {
		return nil, 0, err
	}

	return identity, len(samples), nil
}

// List returns all registered identities.
func (s *EnrollService) List(ctx context.Context) ([]domain.Identity, error) {
	return s.identityRepo.List(ctx)
}

// ReloadModels rebuilds the recognition models from every stored
// sample. Called at startup and after enrollment changes.
func (s *EnrollService) ReloadModels(ctx context.Context) error {
	return s.refit(ctx)
}

func (s *EnrollService) refit(ctx context.Context) error {
	samples, err := s.sampleRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load samples for refit: %w", err)
	}

	byIdentity := make(map[string][][]float32)
	for _, sample := range samples {
		byIdentity[sample.Identity] = append(byIdentity[sample.Identity], sample.Descriptor)
	}
	return s.fitter.FitDescriptors(byIdentity)
}
