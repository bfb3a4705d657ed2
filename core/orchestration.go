package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parleyvoice/parley-core/core/events"
	"github.com/parleyvoice/parley-core/core/session"
)

// DefaultTurnTimeout bounds a single backend round trip, transcription and
// reply generation included.
const DefaultTurnTimeout = 60 * time.Second

const (
	defaultApology        = "I'm having trouble connecting right now. Please try again later."
	captureDeniedGuidance = "Microphone access was denied. Check the system microphone permissions for this app and try again."
)

// ErrOrchestratorClosed is returned when a turn is submitted after Close.
var ErrOrchestratorClosed = errors.New("orchestrator closed")

// Orchestrator drives the capture, submit, playback loop of a voice
// conversation against a single backend session.
type Orchestrator struct {
	session        session.Identity
	turnTimeout    time.Duration
	restoreHistory bool

	stateMu sync.RWMutex
	state   State

	transcript transcript

	// audioInput is the capture facade used to normalize client wiring.
	audioInput audioInput
	// audioOutput is the playback facade used to handle optional client wiring.
	audioOutput audioOutput
	// speech is the local synthesis facade used when replies carry no audio.
	speech speechSynthesizer
	// agent is the backend facade every turn is submitted through.
	agent agentClient

	closeOnce sync.Once
	runtime   *turnRuntime

	orchestrateOptions OrchestrateOptions
	emitter            eventEmitter
	baseContext        context.Context
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		session:     session.New(),
		turnTimeout: DefaultTurnTimeout,
		state:       StateIdle,
		runtime:     newTurnRuntime(),
		emitter:     noopEventEmitter,
		baseContext: context.Background(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.runtime.end()

		if err := o.audioInput.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close audio input: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		o.audioOutput.Close()

		o.runtime.awaitCompletion()
	})
}

// Orchestrate starts the turn loop and binds the per-run callbacks.
//
// ctx is used as the base context for every turn, allowing for cancellation.
//
// Contract: call Orchestrate at most once per orchestrator instance.
// Repeated or concurrent calls are unsupported and may race while runtime
// callbacks/options are being reconfigured.
// TODO: Enforce this contract with a hard runtime guard (single-start gate).
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	if o.runtime.isClosed() {
		log.Println("Warning: orchestrator already closed, skipping Orchestrate")
		return
	}

	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}
	o.emitter = newCallbackEventEmitter(o.orchestrateOptions)

	o.baseContext = ctx
	o.runtime.configure(ctx, o.processTurn)

	if started := o.runtime.start(); started {
		withContextCancelHook(ctx, o.Close)
	}

	if o.restoreHistory {
		go o.restoreTranscript(ctx)
	}
}

// restoreTranscript backfills the transcript from the backend's stored
// history. Entries restored this way carry no timestamps.
func (o *Orchestrator) restoreTranscript(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "restore transcript")
	defer span.End()

	if !o.agent.isConfigured() {
		return
	}

	history, err := o.agent.History(ctx, o.session.ID)
	if err != nil {
		recordedErr := fmt.Errorf("failed to restore transcript: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return
	}

	entries := make([]TranscriptEntry, 0, len(history))
	for _, entry := range history {
		entries = append(entries, TranscriptEntry{Role: Role(entry.Role), Text: entry.Content})
	}

	if !o.transcript.restore(entries) {
		return
	}

	span.SetAttributes(attribute.Int("transcript.restored_entries", len(entries)))
	for _, entry := range entries {
		o.emitEvent(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text))
	}
}

// State returns the current conversation state.
func (o *Orchestrator) State() State {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

// Transcript returns a point-in-time snapshot of the conversation transcript.
func (o *Orchestrator) Transcript() []TranscriptEntry { return o.transcript.snapshot() }

// SessionID returns the identifier every turn of this orchestrator is
// submitted under.
func (o *Orchestrator) SessionID() string { return o.session.ID }

func (o *Orchestrator) setState(to State) {
	o.stateMu.Lock()
	from := o.state
	if from == to {
		o.stateMu.Unlock()
		return
	}
	o.state = to
	o.stateMu.Unlock()

	o.emitEvent(events.NewTurnStateChanged(string(from), string(to)))
}

// transitionFrom moves to a new state only when the current state matches,
// reporting whether it did. It is the guard that keeps a single turn in
// flight.
func (o *Orchestrator) transitionFrom(from, to State) bool {
	o.stateMu.Lock()
	if o.state != from {
		o.stateMu.Unlock()
		return false
	}
	o.state = to
	o.stateMu.Unlock()

	o.emitEvent(events.NewTurnStateChanged(string(from), string(to)))
	return true
}

// StartRecording opens a capture session. Calling it while already recording
// or while a turn is underway is a no-op, so it is safe to wire directly to a
// key or button.
func (o *Orchestrator) StartRecording() error {
	if !o.transitionFrom(StateIdle, StateRecording) {
		return nil
	}

	if err := o.audioInput.Open(o.baseContext); err != nil {
		o.setState(StateIdle)
		o.emitEvent(events.NewCaptureDenied(captureDeniedGuidance))
		return fmt.Errorf("failed to open capture session: %w", err)
	}

	o.emitEvent(events.NewCaptureStarted())
	return nil
}

// StopRecording closes the capture session and submits the utterance as a
// turn. Calling it while not recording is a no-op.
func (o *Orchestrator) StopRecording() error {
	if !o.transitionFrom(StateRecording, StateProcessing) {
		return nil
	}

	utterance, ok, err := o.audioInput.Stop()
	if err != nil {
		o.setState(StateIdle)
		return fmt.Errorf("failed to stop capture session: %w", err)
	}
	if !ok {
		o.setState(StateIdle)
		return nil
	}

	o.emitEvent(events.NewCaptureEnded(len(utterance.Data)))

	if !o.runtime.enqueue(queuedTurn{utterance: utterance, queuedAt: time.Now()}) {
		o.setState(StateIdle)
		return ErrOrchestratorClosed
	}

	return nil
}

// ToggleRecording starts recording when idle and stops it when recording.
// In any other state it does nothing.
func (o *Orchestrator) ToggleRecording() error {
	switch o.State() {
	case StateIdle:
		return o.StartRecording()
	case StateRecording:
		return o.StopRecording()
	default:
		return nil
	}
}

func (o *Orchestrator) appendEntry(role Role, text string) {
	entry := o.transcript.append(role, text)
	o.emitEvent(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text))
}

func (o *Orchestrator) emitEvent(event events.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter(event)
}
