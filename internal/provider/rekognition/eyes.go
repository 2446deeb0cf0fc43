// Package rekognition implements the optional eye-landmark capability
// on AWS Rekognition's DetectFaces attributes. The liveness checker
// uses it to look for a blink across a short frame sequence; the rest
// of the pipeline never depends on AWS.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
)

const errCodeAccessDenied = "AccessDeniedException"

// DetectFacesAPI is the subset of the Rekognition client this package
// uses, extracted for testing
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// EyeLandmarker reports per-frame eye state via Rekognition
type EyeLandmarker struct {
	api DetectFacesAPI
}

// NewEyeLandmarker creates the capability using the AWS default
// credential chain
func NewEyeLandmarker(ctx context.Context, cfg Config) (*EyeLandmarker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EyeLandmarker{api: rekognition.NewFromConfig(awsCfg)}, nil
}

// NewEyeLandmarkerWithAPI creates the capability with a custom API
// implementation
func NewEyeLandmarkerWithAPI(api DetectFacesAPI) *EyeLandmarker {
	return &EyeLandmarker{api: api}
}

// EyesOpen reports whether the single face in the frame has its eyes
// open, and the confidence of that call in [0,1].
func (l *EyeLandmarker) EyesOpen(ctx context.Context, frame []byte) (bool, float64, error) {
	if len(frame) == 0 {
		return false, 0, fmt.Errorf("empty frame")
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: frame,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := l.api.DetectFaces(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeAccessDenied {
			return false, 0, fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
		}
		return false, 0, fmt.Errorf("detect faces: %w", err)
	}

	if len(output.FaceDetails) == 0 {
		return false, 0, ErrNoFaceDetected
	}
	if len(output.FaceDetails) > 1 {
		return false, 0, ErrMultipleFaces
	}

	eyes := output.FaceDetails[0].EyesOpen
	if eyes == nil {
		return false, 0, ErrMissingAttribute
	}

	confidence := float64(aws.ToFloat32(eyes.Confidence)) / 100
	return eyes.Value, confidence, nil
}
