package service

import (
	"fmt"

	"report-submit-pipeline/image"
	"report-submit-pipeline/models"
)

// DraftState tracks how far a report draft has progressed. The ordered
// transitions make illegal combinations (a location without an image, an
// analysis without a photo) unrepresentable instead of relying on three
// independently nullable fields.
type DraftState int

const (
	// StateEmpty is a fresh draft with nothing attached.
	StateEmpty DraftState = iota
	// StateDraft has a photo attached.
	StateDraft
	// StateAnalyzed additionally holds the structured analysis.
	StateAnalyzed
	// StateLocated additionally holds the location snapshot; the draft is
	// ready to submit.
	StateLocated
	// StateSubmitted means the report was persisted and the working state
	// cleared.
	StateSubmitted
)

// Draft is the submission screen's working state for one report. It is
// owned by a single interactive session; nothing here is shared between
// concurrent submissions.
type Draft struct {
	state           DraftState
	imageData       []byte
	imageURI        string
	userDescription string
	analysis        *models.AnalysisResult
	location        *models.LocationSnapshot
}

func NewDraft() *Draft {
	return &Draft{state: StateEmpty}
}

// AttachImage attaches the selected photo. Re-selecting an image drops any
// previous analysis and location since both were derived for the old photo.
func (d *Draft) AttachImage(data []byte, uri, userDescription string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image payload", ErrMissingImage)
	}
	if uri != "" {
		if err := image.ValidateLocalURI(uri); err != nil {
			return err
		}
	}
	d.imageData = data
	d.imageURI = uri
	d.userDescription = userDescription
	d.analysis = nil
	d.location = nil
	d.state = StateDraft
	return nil
}

// AttachAnalysis attaches the structured model analysis. Requires a photo.
func (d *Draft) AttachAnalysis(analysis models.AnalysisResult) error {
	if d.state < StateDraft {
		return ErrMissingImage
	}
	d.analysis = &analysis
	if d.state < StateAnalyzed {
		d.state = StateAnalyzed
	}
	return nil
}

// AttachLocation attaches a captured snapshot. Requires the analysis step; a
// later capture replaces the previous snapshot wholesale.
func (d *Draft) AttachLocation(snapshot models.LocationSnapshot) error {
	if d.state < StateDraft {
		return ErrMissingImage
	}
	if d.state < StateAnalyzed {
		return ErrMissingAnalysis
	}
	d.location = &snapshot
	if d.state < StateLocated {
		d.state = StateLocated
	}
	return nil
}

// State returns the draft's current lifecycle state.
func (d *Draft) State() DraftState {
	return d.state
}

// Analysis returns the attached analysis, or nil.
func (d *Draft) Analysis() *models.AnalysisResult {
	return d.analysis
}

// Location returns the attached snapshot, or nil.
func (d *Draft) Location() *models.LocationSnapshot {
	return d.location
}

// HasImage reports whether a photo is attached.
func (d *Draft) HasImage() bool {
	return len(d.imageData) > 0
}

// markSubmitted clears the working state after a successful submission.
func (d *Draft) markSubmitted() {
	d.imageData = nil
	d.imageURI = ""
	d.userDescription = ""
	d.analysis = nil
	d.location = nil
	d.state = StateSubmitted
}
