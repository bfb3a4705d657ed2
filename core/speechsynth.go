package orchestration

import (
	"context"
	"errors"
)

// ErrNoSpeechSynthesizer marks synthesis requests on an orchestrator with no
// usable synthesizer configured.
var ErrNoSpeechSynthesizer = errors.New("no speech synthesizer configured")

// speechSynthesizer wraps the optional local synthesizer. A configured but
// unavailable synthesizer (no speech command installed on the host) counts
// as unconfigured.
type speechSynthesizer struct {
	// base stores the configured synthesizer.
	base SpeechSynthesizer
}

// Set replaces the configured synthesizer. Nil and typed-nil synthesizers are
// treated as unconfigured.
func (s *speechSynthesizer) Set(synthesizer SpeechSynthesizer) {
	if s == nil {
		return
	}

	s.base = nil
	if isNilClient(synthesizer) {
		return
	}
	s.base = synthesizer
}

func (s *speechSynthesizer) isConfigured() bool {
	return s != nil && s.base != nil && s.base.Available()
}

// Speak renders text aloud and blocks until playback completes or ctx is
// cancelled.
func (s *speechSynthesizer) Speak(ctx context.Context, text string) error {
	if !s.isConfigured() {
		return ErrNoSpeechSynthesizer
	}

	return s.base.Speak(ctx, text)
}
