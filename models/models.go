package models

import "time"

// Severity levels assigned by the analyzer.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// StatusReported is the client-assigned status of a freshly submitted report.
const StatusReported = "reported"

// AnalysisResult is the structured form of the vision model's free-text
// answer. Every field is always populated; the parser substitutes defaults
// for anything it cannot extract.
type AnalysisResult struct {
	IssueType       string   `json:"issue_type"`
	Confidence      int      `json:"confidence"`
	Description     string   `json:"description"`
	Severity        string   `json:"severity"`
	Recommendations []string `json:"recommendations"`
}

// LocationSnapshot is a single coordinate fix captured on demand. A snapshot
// is immutable; a later capture replaces it wholesale.
type LocationSnapshot struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
}

// UploadResult reports the outcome of one object storage upload. Exactly one
// of PublicURL/Error is set depending on Success.
type UploadResult struct {
	Success   bool   `json:"success"`
	PublicURL string `json:"public_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// IssueReport is the persisted record for one submitted civic issue.
type IssueReport struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	IssueType       string    `json:"issue_type"`
	UserDescription string    `json:"user_description"`
	AIDescription   string    `json:"ai_description"`
	ImageURL        string    `json:"image_url"`
	Status          string    `json:"status"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	CreatedAt       time.Time `json:"created_at"`
}
