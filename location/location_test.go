package location

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	status      PermissionStatus
	statusErr   error
	afterPrompt PermissionStatus
	promptErr   error
	fix         Fix
	fixErr      error
	promptCalls int
	fixCalls    int
	statusCalls int
}

func (f *fakeProvider) PermissionStatus(ctx context.Context) (PermissionStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeProvider) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	f.promptCalls++
	return f.afterPrompt, f.promptErr
}

func (f *fakeProvider) CurrentFix(ctx context.Context) (Fix, error) {
	f.fixCalls++
	return f.fix, f.fixErr
}

func TestCaptureGranted(t *testing.T) {
	provider := &fakeProvider{
		status: PermissionGranted,
		fix:    Fix{Latitude: 19.076, Longitude: 72.8777, AccuracyMeters: 5},
	}

	snapshot, err := NewService(provider).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if snapshot.Latitude != 19.076 || snapshot.Longitude != 72.8777 || snapshot.AccuracyMeters != 5 {
		t.Errorf("Capture() = %+v, want the provider fix", snapshot)
	}
	if provider.promptCalls != 0 {
		t.Errorf("permission prompt shown %d times for an already granted status", provider.promptCalls)
	}
	if provider.fixCalls != 1 {
		t.Errorf("CurrentFix called %d times, want exactly 1", provider.fixCalls)
	}
}

func TestCapturePromptsOnceWhenNotGranted(t *testing.T) {
	provider := &fakeProvider{
		status:      PermissionUnknown,
		afterPrompt: PermissionGranted,
		fix:         Fix{Latitude: 42.43, Longitude: 19.26, AccuracyMeters: 12},
	}

	if _, err := NewService(provider).Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if provider.promptCalls != 1 {
		t.Errorf("permission prompt shown %d times, want 1", provider.promptCalls)
	}
}

func TestCaptureSecondDenialIsTerminal(t *testing.T) {
	provider := &fakeProvider{
		status:      PermissionDenied,
		afterPrompt: PermissionDenied,
	}

	_, err := NewService(provider).Capture(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Capture() error = %v, want ErrPermissionDenied", err)
	}
	if provider.promptCalls != 1 {
		t.Errorf("permission prompt shown %d times, want exactly 1", provider.promptCalls)
	}
	if provider.fixCalls != 0 {
		t.Errorf("CurrentFix called %d times after denial, want 0", provider.fixCalls)
	}
}

func TestCaptureFixFailure(t *testing.T) {
	provider := &fakeProvider{
		status: PermissionGranted,
		fixErr: errors.New("gps timeout"),
	}

	_, err := NewService(provider).Capture(context.Background())
	if !errors.Is(err, ErrLocationUnavailable) {
		t.Fatalf("Capture() error = %v, want ErrLocationUnavailable", err)
	}
}

func TestCaptureRejectsOutOfRangeFix(t *testing.T) {
	provider := &fakeProvider{
		status: PermissionGranted,
		fix:    Fix{Latitude: 123.45, Longitude: 600, AccuracyMeters: 3},
	}

	_, err := NewService(provider).Capture(context.Background())
	if !errors.Is(err, ErrLocationUnavailable) {
		t.Fatalf("Capture() error = %v, want ErrLocationUnavailable", err)
	}
}
