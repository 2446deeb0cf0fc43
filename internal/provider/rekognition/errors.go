package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrNoFaceDetected indicates that no face was found in the provided frame
	ErrNoFaceDetected = errors.New("no face detected in frame")

	// ErrMultipleFaces indicates that multiple faces were detected when only one was expected
	ErrMultipleFaces = errors.New("multiple faces detected in frame")

	// ErrMissingAttribute indicates that the response carried no eye state
	ErrMissingAttribute = errors.New("eye state attribute missing from response")
)
