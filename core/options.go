package orchestration

import (
	"context"
	"time"

	"github.com/parleyvoice/parley-core/core/agent"
	"github.com/parleyvoice/parley-core/core/audio"
	"github.com/parleyvoice/parley-core/core/events"
	"github.com/parleyvoice/parley-core/core/session"
)

type OrchestratorOption func(*Orchestrator)

// CaptureClient records microphone audio. A client holds at most one capture
// session at a time; StopCapture closes the session and returns everything
// captured since StartCapture as one encoded utterance.
type CaptureClient interface {
	EncodingInfo() audio.EncodingInfo
	StartCapture(ctx context.Context) error
	StopCapture() (audio.Utterance, error)
	AbortCapture() error
	Close()
}

func WithCaptureClient(client CaptureClient) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.Set(client) }
}

// PlaybackClient renders one finished clip at a time. Play blocks until the
// clip has drained or ctx is cancelled.
type PlaybackClient interface {
	EncodingInfo() audio.EncodingInfo
	Play(ctx context.Context, clip []byte) error
	Close()
}

func WithPlaybackClient(client PlaybackClient) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.Set(client) }
}

// SpeechSynthesizer renders text aloud on the local host. It is the reply
// source of last resort before text only.
type SpeechSynthesizer interface {
	Available() bool
	Speak(ctx context.Context, text string) error
}

func WithSpeechSynthesizer(synthesizer SpeechSynthesizer) OrchestratorOption {
	return func(o *Orchestrator) { o.speech.Set(synthesizer) }
}

// AgentClient is the backend every turn is submitted through.
type AgentClient interface {
	ChatTurn(ctx context.Context, sessionID string, utterance audio.Utterance) (*agent.Response, error)
	FetchAudio(ctx context.Context, ref string) ([]byte, string, error)
	History(ctx context.Context, sessionID string) ([]agent.HistoryEntry, error)
}

func WithAgentClient(client AgentClient) OrchestratorOption {
	return func(o *Orchestrator) { o.agent.Set(client) }
}

// WithSession pins the conversation identity instead of minting a fresh one.
func WithSession(identity session.Identity) OrchestratorOption {
	return func(o *Orchestrator) {
		if !identity.IsZero() {
			o.session = identity
		}
	}
}

// WithHistoryRestore backfills the transcript from backend history when
// Orchestrate starts. Meant for resumed sessions.
func WithHistoryRestore() OrchestratorOption {
	return func(o *Orchestrator) { o.restoreHistory = true }
}

// WithTurnTimeout bounds one full backend round trip, transcription and reply
// generation included.
func WithTurnTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.turnTimeout = timeout
		}
	}
}

type OrchestrateOptions struct {
	onStateChanged     func(from, to State)
	onTranscriptEntry  func(entry TranscriptEntry)
	onCaptureDenied    func(guidance string)
	onTurnFailed       func(reason string)
	onPlaybackStarted  func(source PlaybackSource)
	onPlaybackEnded    func(source PlaybackSource)
	onPlaybackDegraded func(from, to PlaybackSource, reason string)
	onEvent            func(event events.Event)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithStateChangedCallback registers a callback for orchestrator state
// transitions. Exactly one state is active at a time; the callback sees every
// transition in order.
func WithStateChangedCallback(callback func(from, to State)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStateChanged = callback
	}
}

// WithTranscriptEntryCallback registers a callback for entries appended to
// the conversation transcript, restored history included.
func WithTranscriptEntryCallback(callback func(entry TranscriptEntry)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscriptEntry = callback
	}
}

// WithCaptureDeniedCallback registers a callback for refused microphone
// access. The guidance text is display-ready.
func WithCaptureDeniedCallback(callback func(guidance string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onCaptureDenied = callback
	}
}

// WithTurnFailedCallback registers a callback for turns that failed before a
// reply could play. The reason is display-ready: the backend's own error
// message when it sent one.
func WithTurnFailedCallback(callback func(reason string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTurnFailed = callback
	}
}

func WithPlaybackStartedCallback(callback func(source PlaybackSource)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackStarted = callback
	}
}

func WithPlaybackEndedCallback(callback func(source PlaybackSource)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackEnded = callback
	}
}

// WithPlaybackDegradedCallback registers a callback for falls from one
// playback source to a lesser one, skipped sources included.
func WithPlaybackDegradedCallback(callback func(from, to PlaybackSource, reason string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackDegraded = callback
	}
}

// WithEventCallback registers a catch-all callback that receives every
// orchestration event, typed callbacks included.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEvent = callback
	}
}
