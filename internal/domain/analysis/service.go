package analysis

import "context"

// Result is the structured recommendation returned by the analysis service.
type Result struct {
	Summary         string
	Recommendations []string
}

// Service is the external analysis-generation collaborator. It is a pure
// external call with no shared mutable state; implementations must bound the
// call with a timeout. Any failure maps to ErrUpstreamUnavailable so the
// caller can release the credit hold.
type Service interface {
	Analyze(ctx context.Context, tankID string, params WaterParameters) (*Result, error)
}
