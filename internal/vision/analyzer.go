// Package vision wraps the external image-understanding service used for
// eye diagnostics and face-shape frame recommendations.
package vision

import (
	"context"
	"errors"

	"visionx-backend/internal/models"
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrBadResponse  = errors.New("unusable analysis response")
)

type Image struct {
	Data     []byte
	MIMEType string
}

type FaceShapeResult struct {
	FaceShape       string   `json:"faceShape"`
	Explanation     string   `json:"explanation"`
	Recommendations []string `json:"recommendations"`
}

type Analyzer interface {
	AnalyzeEye(ctx context.Context, img Image) (*models.EyeTestResults, error)
	AnalyzeFace(ctx context.Context, img Image) (*FaceShapeResult, error)
}
