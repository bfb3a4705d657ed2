package orchestration

import (
	"context"
	"errors"

	"github.com/parleyvoice/parley-core/core/audio"
)

// ErrNoPlaybackClient marks playback requests on an orchestrator with no
// playback client configured.
var ErrNoPlaybackClient = errors.New("no playback client configured")

// audioOutput wraps the optional playback client behind one facade so turn
// code can treat "no playback" and "playback failed" uniformly: both fall
// through to the next reply source.
type audioOutput struct {
	// base stores the configured playback client.
	base PlaybackClient
}

// Set replaces the configured playback client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioOutput) Set(client PlaybackClient) {
	if a == nil {
		return
	}

	a.base = nil
	if isNilClient(client) {
		return
	}
	a.base = client
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.base != nil
}

// Play renders one clip and blocks until it has drained or ctx is cancelled.
func (a *audioOutput) Play(ctx context.Context, clip []byte) error {
	if !a.isConfigured() {
		return ErrNoPlaybackClient
	}

	return a.base.Play(ctx, clip)
}

// EncodingInfo returns the active output encoding metadata.
//
// If no client is configured, the project default encoding is used.
func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if a.isConfigured() {
		return a.base.EncodingInfo()
	}

	return audio.GetDefaultEncodingInfo()
}

func (a *audioOutput) Close() {
	if a.isConfigured() {
		a.base.Close()
	}
}
