// Package service sequences image preparation, upload, analysis attachment
// and persistence into the single user-facing submit operation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"report-submit-pipeline/auth"
	"report-submit-pipeline/image"
	"report-submit-pipeline/llm"
	"report-submit-pipeline/metrics"
	"report-submit-pipeline/models"
	"report-submit-pipeline/parser"
	"report-submit-pipeline/storage"
)

// Submission failure modes. The precondition errors are recoverable by the
// user completing the missing step; upload and persist failures are
// recoverable by retrying the whole submission.
var (
	ErrMissingImage     = errors.New("no image selected")
	ErrMissingAnalysis  = errors.New("no analysis available")
	ErrMissingLocation  = errors.New("no location captured")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUploadFailed     = errors.New("image upload failed")
	ErrPersistFailed    = errors.New("failed to save the report")
	ErrAnalysisFailed   = errors.New("image analysis failed")
)

// ReportStore is the persistence collaborator consumed by the orchestrator.
type ReportStore interface {
	SaveIssue(ctx context.Context, report *models.IssueReport) (int64, error)
}

// Uploader is the upload coordinator consumed by the orchestrator.
type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName string) models.UploadResult
	Remove(ctx context.Context, fileName string) error
}

// Publisher forwards submitted reports to downstream consumers. Optional;
// submission succeeds without one.
type Publisher interface {
	Publish(message interface{}) error
}

// Submitter is the report submission orchestrator.
type Submitter struct {
	auth      auth.Verifier
	store     ReportStore
	uploader  Uploader
	publisher Publisher
}

func NewSubmitter(verifier auth.Verifier, store ReportStore, uploader Uploader, publisher Publisher) *Submitter {
	return &Submitter{
		auth:      verifier,
		store:     store,
		uploader:  uploader,
		publisher: publisher,
	}
}

// Submit runs the submission pipeline for a ready draft. The precondition
// gate fails fast in a fixed order (image, analysis, location) before any
// collaborator is touched; the order drives which message the user sees
// first. The pipeline itself is strictly sequential: auth, upload, insert.
// On upload or persist failure the draft is left untouched so the user can
// retry without re-selecting anything.
func (s *Submitter) Submit(ctx context.Context, token string, draft *Draft) (*models.IssueReport, error) {
	if !draft.HasImage() {
		return nil, ErrMissingImage
	}
	if draft.analysis == nil {
		return nil, ErrMissingAnalysis
	}
	if draft.location == nil {
		return nil, ErrMissingLocation
	}

	// Resolve identity before any upload so a failed login cannot leave an
	// orphaned image in storage.
	userID, ok := s.auth.CurrentUser(ctx, token)
	if !ok {
		metrics.SubmissionsTotal.WithLabelValues("not_authenticated").Inc()
		return nil, ErrNotAuthenticated
	}

	prepared := image.Prepare(draft.imageData)
	fileName := storage.GenerateFileName(draft.imageURI)

	result := s.uploader.Upload(ctx, prepared, fileName)
	if !result.Success {
		metrics.SubmissionsTotal.WithLabelValues("upload_failed").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, result.Error)
	}
	metrics.UploadBytes.Observe(float64(len(prepared)))

	report := &models.IssueReport{
		UserID:          userID,
		IssueType:       draft.analysis.IssueType,
		UserDescription: draft.userDescription,
		AIDescription:   draft.analysis.Description,
		ImageURL:        result.PublicURL,
		Status:          models.StatusReported,
		Latitude:        draft.location.Latitude,
		Longitude:       draft.location.Longitude,
	}

	id, err := s.store.SaveIssue(ctx, report)
	if err != nil {
		// The image is already durably stored; issue a best-effort
		// compensating delete so a failed insert doesn't strand it.
		if rmErr := s.uploader.Remove(ctx, fileName); rmErr != nil {
			metrics.CompensationsTotal.WithLabelValues("error").Inc()
			log.Errorf("Compensating delete of %s failed: %v", fileName, rmErr)
		} else {
			metrics.CompensationsTotal.WithLabelValues("ok").Inc()
		}
		metrics.SubmissionsTotal.WithLabelValues("persist_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	report.ID = id

	draft.markSubmitted()
	metrics.SubmissionsTotal.WithLabelValues("ok").Inc()

	if s.publisher != nil {
		if err := s.publisher.Publish(report); err != nil {
			log.Warnf("Failed to publish submitted report %d: %v", id, err)
		}
	}

	return report, nil
}

// Analyzer runs the vision model over a prepared photo and normalizes the
// answer.
type Analyzer struct {
	llm llm.Client
}

func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{llm: client}
}

// Analyze prepares the photo, calls the model and parses the raw answer.
// Parsing never fails; only the model call itself can, and that surfaces as
// ErrAnalysisFailed for the caller to present as a retryable error.
func (a *Analyzer) Analyze(ctx context.Context, imageData []byte, description string) (models.AnalysisResult, error) {
	if len(imageData) == 0 {
		return models.AnalysisResult{}, ErrMissingImage
	}

	prepared := image.Prepare(imageData)

	start := time.Now()
	raw, err := a.llm.AnalyzeImage(ctx, prepared, description)
	metrics.AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("error").Inc()
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	metrics.AnalysisTotal.WithLabelValues("ok").Inc()

	return parser.ParseAnalysis(raw), nil
}
