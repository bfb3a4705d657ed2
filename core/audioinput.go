package orchestration

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/parleyvoice/parley-core/core/audio"
)

// ErrNoCaptureClient marks capture requests on an orchestrator with no
// capture client configured.
var ErrNoCaptureClient = errors.New("no capture client configured")

// audioInput normalizes capture session handling over the optional capture
// client. It owns the at-most-one-session invariant so orchestration code can
// request capture without tracking session handles.
type audioInput struct {
	// base stores the configured capture client.
	base CaptureClient

	// connected reports whether a concrete capture client is configured.
	connected atomic.Bool
	// capturing reports whether a capture session is currently open.
	capturing atomic.Bool
}

// Set replaces the configured capture client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioInput) Set(client CaptureClient) {
	if a == nil {
		return
	}

	a.base = nil
	a.connected.Store(false)
	a.capturing.Store(false)

	if isNilClient(client) {
		return
	}

	a.base = client
	a.connected.Store(true)
}

func (a *audioInput) IsConfigured() bool { return a != nil && a.connected.Load() }
func (a *audioInput) IsCapturing() bool  { return a != nil && a.capturing.Load() }

// Open starts a capture session. At most one session is open at a time;
// opening while one is open is a no-op.
func (a *audioInput) Open(ctx context.Context) error {
	if !a.IsConfigured() {
		return ErrNoCaptureClient
	}

	if !a.capturing.CompareAndSwap(false, true) {
		return nil
	}

	if err := a.base.StartCapture(ctx); err != nil {
		a.capturing.Store(false)
		return err
	}
	return nil
}

// Stop closes the open capture session and returns the captured utterance.
// The second return reports whether a session was open; stopping with no open
// session is a no-op.
func (a *audioInput) Stop() (audio.Utterance, bool, error) {
	if a == nil || !a.capturing.CompareAndSwap(true, false) {
		return audio.Utterance{}, false, nil
	}

	utterance, err := a.base.StopCapture()
	if err != nil {
		return audio.Utterance{}, true, err
	}
	return utterance, true, nil
}

// Abort closes the open capture session and discards whatever was captured.
func (a *audioInput) Abort() {
	if a == nil || !a.capturing.CompareAndSwap(true, false) {
		return
	}

	if err := a.base.AbortCapture(); err != nil {
		logger.Warn("Failed to abort capture session", "error", err)
	}
}

func (a *audioInput) Close() error {
	if a == nil || a.base == nil {
		return nil
	}

	var errs error
	if a.capturing.CompareAndSwap(true, false) {
		if err := a.base.AbortCapture(); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	a.base.Close()

	return errs
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.base == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}
