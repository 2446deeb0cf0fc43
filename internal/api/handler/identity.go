package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

// EnrollmentService manages identities and their face samples.
type EnrollmentService interface {
	Register(ctx context.Context, name string, email, department *string) (*domain.Identity, error)
	Enroll(ctx context.Context, name string, frames [][]byte) (*domain.Identity, int, error)
	List(ctx context.Context) ([]domain.Identity, error)
}

// IdentityHandler handles identity registration and enrollment
type IdentityHandler struct {
	service EnrollmentService
	logger  *slog.Logger
}

// NewIdentityHandler creates a new IdentityHandler instance
func NewIdentityHandler(service EnrollmentService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRequest request body for identity registration
type RegisterRequest struct {
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
}

// EnrollResponse response for the enroll endpoint
type EnrollResponse struct {
	Identity      *domain.Identity `json:"identity"`
	SamplesStored int              `json:"samples_stored"`
}

// ListIdentitiesResponse response for the list endpoint
type ListIdentitiesResponse struct {
	Identities []domain.Identity `json:"identities"`
	Total      int               `json:"total"`
}

// Register POST /v1/identities - register a new identity
func (h *IdentityHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	identity, err := h.service.Register(c.Context(), req.Name, req.Email, req.Department)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(identity)
}

// Enroll POST /v1/identities/:name/enroll - store face samples and refit models
func (h *IdentityHandler) Enroll(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity name is required"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	files := form.File["frames"]
	if len(files) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("at least one frame is required"))
	}

	frames := make([][]byte, 0, len(files))
	for _, file := range files {
		frame, err := readImageFile(file)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
	}

	identity, stored, err := h.service.Enroll(c.Context(), name, frames)
	if err != nil {
		return err
	}

	h.logger.Info("identity enrolled",
		slog.String("identity", identity.Name),
		slog.Int("samples", stored),
	)

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Identity:      identity,
		SamplesStored: stored,
	})
}

// List GET /v1/identities - list registered identities
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	identities, err := h.service.List(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(ListIdentitiesResponse{
		Identities: identities,
		Total:      len(identities),
	})
}
