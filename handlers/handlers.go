package handlers

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"report-submit-pipeline/auth"
	"report-submit-pipeline/image"
	"report-submit-pipeline/location"
	"report-submit-pipeline/models"
	"report-submit-pipeline/service"
)

// maxUploadSize bounds the multipart image payload read into memory.
const maxUploadSize = 16 << 20

// IssueStore is the persistence surface used by the read and delete
// endpoints.
type IssueStore interface {
	GetIssuesByUser(ctx context.Context, userID string) ([]models.IssueReport, error)
	GetIssue(ctx context.Context, id int64, userID string) (*models.IssueReport, error)
	DeleteIssue(ctx context.Context, id int64, userID string) error
}

// ImageRemover deletes a stored image when its report is deleted.
type ImageRemover interface {
	Remove(ctx context.Context, fileName string) error
}

// Handlers holds the HTTP handlers for the submission pipeline.
type Handlers struct {
	analyzer  *service.Analyzer
	submitter *service.Submitter
	verifier  auth.Verifier
	store     IssueStore
	remover   ImageRemover
}

func NewHandlers(analyzer *service.Analyzer, submitter *service.Submitter, verifier auth.Verifier, store IssueStore, remover ImageRemover) *Handlers {
	return &Handlers{
		analyzer:  analyzer,
		submitter: submitter,
		verifier:  verifier,
		store:     store,
		remover:   remover,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "report-submit-pipeline",
	})
}

// AnalyzeReport accepts a multipart photo plus an optional description and
// returns the structured analysis.
func (h *Handlers) AnalyzeReport(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please attach a photo of the issue."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the attached photo."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the attached photo."})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), data, c.PostForm("description"))
	if err != nil {
		if errors.Is(err, service.ErrMissingImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please attach a photo of the issue."})
			return
		}
		log.Errorf("Analysis failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze image with AI. Please try again."})
		return
	}

	c.JSON(http.StatusOK, result)
}

type submitRequest struct {
	Image           string                   `json:"image"`
	ImageURI        string                   `json:"image_uri"`
	UserDescription string                   `json:"user_description"`
	Analysis        *models.AnalysisResult   `json:"analysis"`
	Location        *models.LocationSnapshot `json:"location"`
}

// SubmitReport rebuilds the draft from the request and runs the submission
// pipeline.
func (h *Handlers) SubmitReport(c *gin.Context) {
	var req submitRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed submission payload."})
		return
	}

	draft := service.NewDraft()
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data. Please try taking the photo again."})
			return
		}
		if err := draft.AttachImage(data, req.ImageURI, req.UserDescription); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": userMessage(err)})
			return
		}
	}
	if req.Analysis != nil {
		if err := draft.AttachAnalysis(*req.Analysis); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": userMessage(err)})
			return
		}
	}
	if req.Location != nil {
		if err := location.ValidateSnapshot(*req.Location); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates."})
			return
		}
		if err := draft.AttachLocation(*req.Location); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": userMessage(err)})
			return
		}
	}

	token := auth.ExtractBearer(c.GetHeader("Authorization"))
	report, err := h.submitter.Submit(c.Request.Context(), token, draft)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Errorf("Submission failed: %v", err)
		}
		c.JSON(status, gin.H{"error": userMessage(err)})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListReports returns the authenticated user's reports, newest first.
func (h *Handlers) ListReports(c *gin.Context) {
	userID, ok := h.verifier.CurrentUser(c.Request.Context(), auth.ExtractBearer(c.GetHeader("Authorization")))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in to view your reports."})
		return
	}

	reports, err := h.store.GetIssuesByUser(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("Failed to list reports for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load your reports. Please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// DeleteReport removes one of the user's reports along with its stored
// image.
func (h *Handlers) DeleteReport(c *gin.Context) {
	userID, ok := h.verifier.CurrentUser(c.Request.Context(), auth.ExtractBearer(c.GetHeader("Authorization")))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in to delete a report."})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report id."})
		return
	}

	issue, err := h.store.GetIssue(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found."})
		return
	}

	if err := h.store.DeleteIssue(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found."})
			return
		}
		log.Errorf("Failed to delete report %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete the report. Please try again."})
		return
	}

	// Best-effort image cleanup; the report row is already gone.
	if key := objectKeyFromURL(issue.ImageURL); key != "" {
		if err := h.remover.Remove(c.Request.Context(), key); err != nil {
			log.Warnf("Failed to delete image %s for report %d: %v", key, id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// statusFor maps pipeline failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingImage),
		errors.Is(err, service.ErrMissingAnalysis),
		errors.Is(err, service.ErrMissingLocation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the single human-readable message shown for a pipeline
// failure. No structured error codes reach end users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, image.ErrInvalidImageURI):
		return "Please choose a photo stored on this device."
	case errors.Is(err, service.ErrMissingImage):
		return "Please select or take a photo first."
	case errors.Is(err, service.ErrMissingAnalysis):
		return "Please analyze the photo before submitting."
	case errors.Is(err, service.ErrMissingLocation):
		return "Please capture your location before submitting."
	case errors.Is(err, service.ErrNotAuthenticated):
		return "You must be signed in to submit a report."
	case errors.Is(err, service.ErrUploadFailed):
		return "Image upload failed. " + trailer(err, service.ErrUploadFailed)
	case errors.Is(err, service.ErrPersistFailed):
		return "Failed to submit report. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// trailer extracts the human detail wrapped behind a sentinel, e.g. the
// upload coordinator's category message.
func trailer(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return "Please try again."
}

// objectKeyFromURL recovers the stored object name from a public URL.
func objectKeyFromURL(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}
	key := path.Base(u.Path)
	if key == "." || key == "/" {
		return ""
	}
	return key
}
