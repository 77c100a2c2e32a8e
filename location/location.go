// Package location obtains a single coordinate snapshot on demand from a
// device geolocation collaborator. There is no continuous tracking: one
// explicit capture produces one snapshot, and a later capture replaces the
// previous one wholesale.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/geo/s2"

	"report-submit-pipeline/models"
)

var (
	// ErrPermissionDenied means the user refused location access twice; the
	// attempt is over and the caller surfaces it, no retry loop.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrLocationUnavailable covers fix timeouts, hardware errors and
	// out-of-range coordinates.
	ErrLocationUnavailable = errors.New("location unavailable")
)

// PermissionStatus is the device permission state for location access.
type PermissionStatus int

const (
	PermissionUnknown PermissionStatus = iota
	PermissionGranted
	PermissionDenied
)

// Fix is one raw position reading from the device.
type Fix struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

// Provider is the device geolocation collaborator.
type Provider interface {
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	// RequestPermission shows the user-visible prompt and reports the
	// resulting status.
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	// CurrentFix requests one high-accuracy position. It may block up to the
	// provider's own timeout.
	CurrentFix(ctx context.Context) (Fix, error)
}

// Service drives the permission state machine and validates fixes.
type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Capture produces exactly one location snapshot. The permission flow is
// Unknown -> check -> Granted|Denied; a denial triggers one explicit request
// prompt, and a second denial is terminal for this attempt.
func (s *Service) Capture(ctx context.Context) (models.LocationSnapshot, error) {
	status, err := s.provider.PermissionStatus(ctx)
	if err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	if status != PermissionGranted {
		status, err = s.provider.RequestPermission(ctx)
		if err != nil {
			return models.LocationSnapshot{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
		}
		if status != PermissionGranted {
			return models.LocationSnapshot{}, ErrPermissionDenied
		}
	}

	fix, err := s.provider.CurrentFix(ctx)
	if err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	snapshot := models.LocationSnapshot{
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyMeters: fix.AccuracyMeters,
	}
	if err := ValidateSnapshot(snapshot); err != nil {
		return models.LocationSnapshot{}, err
	}
	return snapshot, nil
}

// ValidateSnapshot rejects coordinates outside the valid latitude/longitude
// range and negative accuracy values.
func ValidateSnapshot(snapshot models.LocationSnapshot) error {
	ll := s2.LatLngFromDegrees(snapshot.Latitude, snapshot.Longitude)
	if !ll.IsValid() {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)",
			ErrLocationUnavailable, snapshot.Latitude, snapshot.Longitude)
	}
	if snapshot.AccuracyMeters < 0 {
		return fmt.Errorf("%w: negative accuracy %f", ErrLocationUnavailable, snapshot.AccuracyMeters)
	}
	return nil
}
