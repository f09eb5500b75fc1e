// Package submit hands an annotated image and its analysis parameters to
// the analysis service.
package submit

import (
	"context"
	"errors"

	"github.com/example/d4scope/internal/annotation"
)

var (
	// ErrNoImage is returned when a request carries no image data.
	ErrNoImage = errors.New("no image selected")
	// ErrNoParameters is returned when a request carries no parameters.
	ErrNoParameters = errors.New("no analysis parameters")
)

// Request is one submission.
type Request struct {
	Image       []byte
	Filename    string
	Parameters  map[string]any
	Annotations annotation.Export
}

// Validate rejects requests missing an image or parameters.
func (r Request) Validate() error {
	if len(r.Image) == 0 {
		return ErrNoImage
	}
	if len(r.Parameters) == 0 {
		return ErrNoParameters
	}
	return nil
}

// Result is what the analysis service returns.
type Result struct {
	ProcessedImage  string         `json:"processedImage"`
	AnalysisResults map[string]any `json:"analysisResults"`
}

// Analyzer sends requests to an analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// PlaceholderImage is the processed image URL returned by the mock service.
const PlaceholderImage = "https://picsum.photos/800/600"

// Mock is an in-process Analyzer that echoes the parameters back.
type Mock struct{}

// Analyze implements Analyzer.
func (Mock) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{ProcessedImage: PlaceholderImage, AnalysisResults: req.Parameters}, nil
}
