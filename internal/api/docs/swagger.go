package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// PunchEventData represents an accepted punch event
type PunchEventData struct {
	ID         string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Identity   string `json:"identity" example:"alice"`
	Type       string `json:"type" example:"in"`
	OccurredAt string `json:"occurred_at" example:"2026-03-02T08:58:12Z"`
	DayKey     string `json:"day_key" example:"2026-03-02"`
	CreatedAt  string `json:"created_at" example:"2026-03-02T08:58:12Z"`
}

// LivenessVerdictData represents the liveness judgment for a capture
type LivenessVerdictData struct {
	IsLive  bool     `json:"is_live" example:"true"`
	Score   float64  `json:"score" example:"184.2"`
	Signals []string `json:"signals"`
}

// PunchAcceptedResponse represents the response for an accepted punch
type PunchAcceptedResponse struct {
	Event    PunchEventData      `json:"event"`
	Distance float64             `json:"distance" example:"42.7"`
	Liveness LivenessVerdictData `json:"liveness"`
}

// IdentityData represents a registered identity
type IdentityData struct {
	ID         string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name       string `json:"name" example:"alice"`
	Email      string `json:"email,omitempty" example:"alice@example.com"`
	Department string `json:"department,omitempty" example:"engineering"`
	Enrolled   bool   `json:"enrolled" example:"true"`
	CreatedAt  string `json:"created_at" example:"2026-03-01T09:00:00Z"`
	UpdatedAt  string `json:"updated_at" example:"2026-03-01T09:00:00Z"`
}

// RegisterIdentityRequest represents the body for identity registration
type RegisterIdentityRequest struct {
	Name       string `json:"name" example:"alice"`
	Email      string `json:"email,omitempty" example:"alice@example.com"`
	Department string `json:"department,omitempty" example:"engineering"`
}

// EnrollResultResponse represents the response for a completed enrollment
type EnrollResultResponse struct {
	Identity      IdentityData `json:"identity"`
	SamplesStored int          `json:"samples_stored" example:"12"`
}

// ListIdentitiesData wraps the identity list
type ListIdentitiesData struct {
	Identities []IdentityData `json:"identities"`
	Total      int            `json:"total" example:"3"`
}

// DailyStatusData represents the derived daily view for one identity
type DailyStatusData struct {
	Identity      string           `json:"identity" example:"alice"`
	DayKey        string           `json:"day_key" example:"2026-03-02"`
	Events        []PunchEventData `json:"events"`
	LastType      string           `json:"last_type,omitempty" example:"in"`
	WorkedSeconds int64            `json:"worked_seconds" example:"26100"`
	BreakSeconds  int64            `json:"break_seconds" example:"2700"`
	Open          bool             `json:"open" example:"true"`
}

// HistoryData wraps daily views, most recent first
type HistoryData struct {
	Identity string            `json:"identity" example:"alice"`
	Days     int               `json:"days" example:"7"`
	History  []DailyStatusData `json:"history"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Punchcard Attendance API",
		Version:     "v1.0.0",
		Description: "Face-recognition attendance service: punch clock decisions, identity enrollment, and derived daily views",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/punch - Decide a punch attempt
		endpoint.New(
			endpoint.POST,
			"/punch",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Decide one clock-in/out attempt"),
			endpoint.WithDescription("Runs the full decision pipeline on the submitted face crop: preprocessing, liveness, recognition, then the attendance rules. Extra frames of the same capture may be attached for the blink signal; an optional identity field makes the kiosk's expectation binding."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PunchAcceptedResponse{}, "201", "Punch accepted and recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Missing image or unknown punch type"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "COOLDOWN", Message: "A punch was already recorded within the cooldown window"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INVALID_SEQUENCE", Message: "Requested punch type is not allowed after the previous one"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "LOW_CONFIDENCE", Message: "Face did not match any enrolled identity"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "AMBIGUOUS_MATCH", Message: "Two enrolled identities matched too closely to decide"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "LIVENESS_FAILED", Message: "Liveness check failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/identities - Register identity
		endpoint.New(
			endpoint.POST,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Register a new identity"),
			endpoint.WithDescription("Creates a new identity with no face samples yet. Enrollment happens separately."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityData{}, "201", "Identity registered successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "name is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IDENTITY_ALREADY_EXISTS", Message: "An identity with this name is already registered"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/identities/:name/enroll - Enroll face samples
		endpoint.New(
			endpoint.POST,
			"/identities/{name}/enroll",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Enroll face samples for an identity"),
			endpoint.WithDescription("Preprocesses the submitted frames, stores their descriptors, and refits the recognition models. Frames that fail preprocessing are skipped; if fewer than the minimum survive, nothing is stored."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Path, parameter.WithDescription("Identity name")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResultResponse{}, "201", "Samples stored and models refitted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "At least one frame is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "TOO_FEW_SAMPLES", Message: "Not enough usable face samples to enroll"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/identities - List identities
		endpoint.New(
			endpoint.GET,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("List registered identities"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListIdentitiesData{}, "200", "Identities retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/identities/:name/status - Daily status
		endpoint.New(
			endpoint.GET,
			"/identities/{name}/status",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Get the derived daily view for an identity"),
			endpoint.WithDescription("Recomputes the daily totals from the identity's event log: worked time, break time, and whether the day is still open."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Path, parameter.WithDescription("Identity name")),
				parameter.StrParam("date", parameter.Query, parameter.WithDescription("Calendar date (YYYY-MM-DD, default: today)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DailyStatusData{}, "200", "Daily view retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid date format"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/identities/:name/history - Daily views over a range
		endpoint.New(
			endpoint.GET,
			"/identities/{name}/history",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Get recent daily views for an identity"),
			endpoint.WithDescription("Returns the last N days of derived views, most recent first. Days without events are omitted."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Path, parameter.WithDescription("Identity name")),
				parameter.IntParam("days", parameter.Query, parameter.WithDescription("Number of days to include (1-366, default: 7)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryData{}, "200", "History retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "days must be between 1 and 366"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
