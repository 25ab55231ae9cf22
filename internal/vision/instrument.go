package vision

import (
	"context"
	"time"

	"visionx-backend/internal/models"
)

type Recorder func(mode string, err error, d time.Duration)

type instrumented struct {
	next   Analyzer
	record Recorder
}

// Instrument reports the outcome and latency of every analysis to record.
func Instrument(a Analyzer, record Recorder) Analyzer {
	if a == nil || record == nil {
		return a
	}
	return &instrumented{next: a, record: record}
}

func (i *instrumented) AnalyzeEye(ctx context.Context, img Image) (*models.EyeTestResults, error) {
	start := time.Now()
	res, err := i.next.AnalyzeEye(ctx, img)
	i.record("eye", err, time.Since(start))
	return res, err
}

func (i *instrumented) AnalyzeFace(ctx context.Context, img Image) (*FaceShapeResult, error) {
	start := time.Now()
	res, err := i.next.AnalyzeFace(ctx, img)
	i.record("face", err, time.Since(start))
	return res, err
}
