package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on the error code, so values derived with WithError still
// compare equal to the predefined error under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// Pipeline rejections. None of these touch persisted state.

	ErrInsufficientResolution = &AppError{
		Code:       "INSUFFICIENT_RESOLUTION",
		Message:    "Face region too small for reliable matching, please re-capture",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrLowConfidence = &AppError{
		Code:       "LOW_CONFIDENCE",
		Message:    "Face did not match any enrolled identity",
		StatusCode: 422,
	}

	ErrAmbiguousMatch = &AppError{
		Code:       "AMBIGUOUS_MATCH",
		Message:    "Two enrolled identities matched too closely to decide",
		StatusCode: 422,
	}

	ErrLivenessFailed = &AppError{
		Code:       "LIVENESS_FAILED",
		Message:    "Liveness check failed, please use a live camera feed",
		StatusCode: 422,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No identities enrolled yet",
		StatusCode: 409,
	}

	// Attendance rejections. Recoverable by retrying later or choosing
	// a different punch type.

	ErrCooldown = &AppError{
		Code:       "COOLDOWN",
		Message:    "A punch was already recorded within the cooldown window",
		StatusCode: 409,
	}

	ErrInvalidSequence = &AppError{
		Code:       "INVALID_SEQUENCE",
		Message:    "Requested punch type is not allowed after the previous one",
		StatusCode: 409,
	}

	// Persistence failures.

	ErrIdentityNotFound = &AppError{
		Code:       "IDENTITY_NOT_FOUND",
		Message:    "Identity not found",
		StatusCode: 404,
	}

	ErrIdentityExists = &AppError{
		Code:       "IDENTITY_ALREADY_EXISTS",
		Message:    "An identity with this name is already registered",
		StatusCode: 409,
	}

	ErrConstraintViolation = &AppError{
		Code:       "CONSTRAINT_VIOLATION",
		Message:    "Persistence integrity check failed, nothing was written",
		StatusCode: 500,
	}

	ErrTooFewSamples = &AppError{
		Code:       "TOO_FEW_SAMPLES",
		Message:    "Not enough usable face samples to enroll",
		StatusCode: 422,
	}
)
