package parser

import (
	"regexp"
	"strconv"
	"strings"

	"report-submit-pipeline/models"
)

// Defaults applied when the model response doesn't contain a recognizable
// field. Every AnalysisResult leaves this package fully populated.
const (
	DefaultIssueType   = "Unknown Issue"
	DefaultConfidence  = 70
	DefaultDescription = "AI analysis completed but couldn't parse specific details."
)

// minRecommendationLen filters out label-only lines such as "Recommendations:".
const minRecommendationLen = 10

var (
	confidenceRe     = regexp.MustCompile(`(\d+)%`)
	recommendationRe = regexp.MustCompile(`(?i)(?:recommendation|suggestion|advice)[:\s]+([^.\n]+)`)
)

// DefaultRecommendations returns the fixed fallback list used when no
// recommendations were extracted from the response.
func DefaultRecommendations() []string {
	return []string{"Contact local authorities", "Document the issue with photos"}
}

// ParseAnalysis turns the model's free-text response into a fully populated
// AnalysisResult. It is a total function: unrecognized, empty or malformed
// input produces defaults, never an error.
//
// The line scan has no early exit, so a field labeled on several lines keeps
// the last match. That matches the observed model output handling; see
// DESIGN.md for the open question around it.
func ParseAnalysis(rawText string) (result models.AnalysisResult) {
	defer func() {
		// The scan must never fail the pipeline; on any internal panic fall
		// back to the full default record.
		if r := recover(); r != nil {
			result = defaultResult(rawText)
		}
	}()

	result = defaultResult(rawText)

	var (
		issueType       string
		confidence      int
		severity        string
		recommendations []string
	)

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if strings.Contains(lower, "issue type:") || strings.Contains(lower, "type:") {
			if _, after, found := strings.Cut(line, ":"); found {
				if v := strings.TrimSpace(after); v != "" {
					issueType = v
				}
			}
		}

		if strings.Contains(lower, "confidence:") || strings.Contains(lower, "%") {
			if m := confidenceRe.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					confidence = n
				}
			}
		}

		if strings.Contains(lower, "severity:") {
			_, after, _ := strings.Cut(lower, ":")
			switch sev := strings.TrimSpace(after); {
			case strings.Contains(sev, "low"):
				severity = models.SeverityLow
			case strings.Contains(sev, "high"):
				severity = models.SeverityHigh
			default:
				severity = models.SeverityMedium
			}
		}

		if strings.Contains(lower, "recommendation") || strings.Contains(lower, "suggestion") {
			if _, after, found := strings.Cut(line, ":"); found {
				if rec := strings.TrimSpace(after); len(rec) > minRecommendationLen {
					recommendations = append(recommendations, rec)
				}
			}
		}
	}

	// Labeled lines gave nothing; look for inline recommendations anywhere in
	// the text.
	if len(recommendations) == 0 {
		for _, m := range recommendationRe.FindAllStringSubmatch(rawText, 3) {
			if rec := strings.TrimSpace(m[1]); rec != "" {
				recommendations = append(recommendations, rec)
			}
		}
	}

	if issueType != "" {
		result.IssueType = issueType
	}
	if confidence > 0 {
		if confidence > 100 {
			confidence = 100
		}
		result.Confidence = confidence
	}
	if severity != "" {
		result.Severity = severity
	}
	if len(recommendations) > 0 {
		result.Recommendations = recommendations
	}
	return result
}

// defaultResult builds the fallback record. Description carries the raw model
// output verbatim so no information is lost when nothing structured was
// recognized.
func defaultResult(rawText string) models.AnalysisResult {
	description := rawText
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}
	return models.AnalysisResult{
		IssueType:       DefaultIssueType,
		Confidence:      DefaultConfidence,
		Description:     description,
		Severity:        models.SeverityMedium,
		Recommendations: DefaultRecommendations(),
	}
}
