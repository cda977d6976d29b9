package domain

import (
	"context"
	"time"
)

// AnalyzeRequest describes one recording submitted to the classifier.
type AnalyzeRequest struct {
	Path          string
	Lat           float64
	Lon           float64
	Date          time.Time // capture day; used for the species range filter
	MinConfidence float64
}

// Classifier detects bird calls in a single recording. Implementations
// filter out detections below MinConfidence. Any error is scoped to the
// one recording.
type Classifier interface {
	Analyze(ctx context.Context, req AnalyzeRequest) ([]Detection, error)
}
