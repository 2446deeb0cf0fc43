package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/punchcardlabs/punchcard/internal/domain"
	"github.com/punchcardlabs/punchcard/internal/service"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
	maxFrames    = 30
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// AttendanceService is the punch decision pipeline the handler drives.
type AttendanceService interface {
	Punch(ctx context.Context, req service.PunchRequest) (*service.PunchResult, error)
	Status(ctx context.Context, name string, day domain.DayKey) (*domain.DailyStatus, error)
	History(ctx context.Context, name string, days int, now time.Time) ([]domain.DailyStatus, error)
}

// PunchHandler handles punch and derived-view requests
type PunchHandler struct {
	service AttendanceService
	loc     *time.Location
	logger  *slog.Logger
}

// NewPunchHandler creates a new PunchHandler instance
func NewPunchHandler(service AttendanceService, loc *time.Location, logger *slog.Logger) *PunchHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PunchHandler{
		service: service,
		loc:     loc,
		logger:  logger,
	}
}

// PunchResponse response for an accepted punch
type PunchResponse struct {
	Event    *domain.PunchEvent     `json:"event"`
	Distance float64                `json:"distance"`
	Liveness domain.LivenessVerdict `json:"liveness"`
}

// Punch POST /v1/punch - decide one clock-in/out attempt
func (h *PunchHandler) Punch(c *fiber.Ctx) error {
	// 1. Parse and validate the requested punch type
	punchType, err := domain.ParsePunchType(strings.TrimSpace(c.FormValue("type")))
	if err != nil {
		return err
	}

	// 2. Extract the primary face crop
	imageBytes, err := extractAndValidateImage(c, "image")
	if err != nil {
		return err
	}

	// 3. Extract optional extra frames for the blink signal
	frames, err := extractFrames(c)
	if err != nil {
		return err
	}

	// 4. Run the decision pipeline
	result, err := h.service.Punch(c.Context(), service.PunchRequest{
		Image:    imageBytes,
		Frames:   frames,
		Type:     punchType,
		Identity: strings.TrimSpace(c.FormValue("identity")),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(PunchResponse{
		Event:    result.Event,
		Distance: result.Distance,
		Liveness: result.Liveness,
	})
}

// Status GET /v1/identities/:name/status - derived daily view
func (h *PunchHandler) Status(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity name is required"))
	}

	day := domain.DayKeyAt(time.Now(), h.loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := domain.ParseDayKey(raw)
		if err != nil {
			return err
		}
		day = parsed
	}

	status, err := h.service.Status(c.Context(), name, day)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// HistoryResponse response for the history endpoint
type HistoryResponse struct {
	Identity string               `json:"identity"`
	Days     int                  `json:"days"`
	History  []domain.DailyStatus `json:"history"`
}

// History GET /v1/identities/:name/history - last N daily views
func (h *PunchHandler) History(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity name is required"))
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 366 {
			return domain.ErrValidationFailed.WithError(errors.New("days must be between 1 and 366"))
		}
		days = parsed
	}

	history, err := h.service.History(c.Context(), name, days, time.Now())
	if err != nil {
		return err
	}

	return c.JSON(HistoryResponse{
		Identity: name,
		Days:     days,
		History:  history,
	})
}

// extractAndValidateImage extracts and validates one image file from the form
func extractAndValidateImage(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}
	return readImageFile(file)
}

// extractFrames reads the optional "frames" files from the multipart form
func extractFrames(c *fiber.Ctx) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	files := form.File["frames"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxFrames {
		return nil, domain.ErrValidationFailed.WithError(errors.New("too many frames"))
	}

	frames := make([][]byte, 0, len(files))
	for _, file := range files {
		frame, err := readImageFile(file)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func readImageFile(file *multipart.FileHeader) ([]byte, error) {
	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	if contentType := file.Header.Get("Content-Type"); contentType != "" && !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
