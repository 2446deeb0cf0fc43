package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is one enrolled user.
type Identity struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Department *string   `json:"department,omitempty"`
	Enrolled   bool      `json:"enrolled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FaceSample is the stored matching structure derived from one
// normalized enrollment frame: the LBP descriptor plus its owner.
type FaceSample struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"-"`
	Identity   string    `json:"identity"`
	Descriptor []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecognitionResult is the per-frame matching verdict. Ephemeral.
// Distance is on the chi-square scale: lower is more confident, 0 is
// an exact descriptor match. Identity is empty when not accepted.
type RecognitionResult struct {
	Identity string  `json:"identity,omitempty"`
	Distance float64 `json:"distance"`
	Accepted bool    `json:"accepted"`
}

// LivenessVerdict is the per-frame anti-spoof judgment. Advisory only.
// Signals names the checks that actually contributed, since the
// secondary blink signal is optional.
type LivenessVerdict struct {
	IsLive  bool     `json:"is_live"`
	Score   float64  `json:"score"`
	Signals []string `json:"signals"`
}
