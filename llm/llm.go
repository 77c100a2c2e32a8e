package llm

import "context"

// Client abstracts the hosted vision model used for issue analysis. The
// model is an opaque, possibly slow, possibly failing text generator; the
// parser package is the adapter from its untyped output to our structured
// analysis record.
type Client interface {
	// AnalyzeImage sends the photo and an optional user description and
	// returns the raw model response text.
	AnalyzeImage(ctx context.Context, imageData []byte, description string) (string, error)
	// SourceName returns a short provider label for logs and metrics.
	SourceName() string
}
