package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Client is a deterministic, no-network vision model stub for CI and local
// end-to-end tests. It answers in the labeled-line shape the parser expects
// so the full analyze-and-submit pipeline can run without credentials.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

var canned = []struct {
	issueType  string
	confidence int
	severity   string
}{
	{"Pothole", 92, "High"},
	{"Garbage Dump", 88, "Medium"},
	{"Broken Streetlight", 81, "Low"},
	{"Graffiti", 76, "Low"},
}

func (c *Client) AnalyzeImage(ctx context.Context, imageData []byte, description string) (string, error) {
	// Deterministic per-input so tests are stable.
	sum := sha256.Sum256(append([]byte(description), imageData...))
	pick := canned[int(sum[0])%len(canned)]
	short := hex.EncodeToString(sum[:4])

	return fmt.Sprintf(
		"Issue Type: %s\nConfidence: %d%%\nSeverity: %s\nDescription: Stubbed analysis %s of the submitted photo.\nRecommendation: Report the issue to the responsible city department\nRecommendation: Document the exact location for follow-up",
		pick.issueType, pick.confidence, pick.severity, short,
	), nil
}
