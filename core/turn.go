package orchestration

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parleyvoice/parley-core/core/agent"
	"github.com/parleyvoice/parley-core/core/events"
)

// processTurn runs a captured utterance through the backend and plays the
// reply. It always parks the orchestrator back in the idle state, whatever
// the backend or the playback chain does.
func (o *Orchestrator) processTurn(ctx context.Context, turn queuedTurn) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("session.id", o.session.ID),
		attribute.Int("turn.utterance_bytes", len(turn.utterance.Data)),
	)

	defer o.setState(StateIdle)

	o.emitEvent(events.NewTurnStarted())

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	response, err := o.agent.ChatTurn(ctx, o.session.ID, turn.utterance)
	if err != nil {
		o.failTurn(span, err)
		return
	}

	if reason := stringValue(response.Error); reason != "" {
		span.SetAttributes(attribute.String("turn.backend_error", reason))
	}

	if transcription := stringValue(response.Transcription); transcription != "" {
		o.appendEntry(RoleUser, transcription)
	}

	assistantText := assistantTextFor(response)
	o.appendEntry(RoleAssistant, assistantText)

	source := o.playReply(ctx, response, assistantText)
	span.SetAttributes(attribute.String("turn.playback_source", string(source)))

	o.emitEvent(events.NewTurnCompleted())
}

// failTurn records a turn that never produced a backend response. The apology
// entry keeps the transcript coherent for the user even though nothing came
// back.
func (o *Orchestrator) failTurn(span trace.Span, err error) {
	reason := err.Error()
	statusErr := &agent.StatusError{}
	if errors.As(err, &statusErr) {
		reason = statusErr.Reason
	}

	err = fmt.Errorf("failed to submit turn: %w", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	o.emitEvent(events.NewTurnFailed(reason))
	o.appendEntry(RoleAssistant, defaultApology)

	// The turn context may be past its deadline, so the apology is spoken on
	// the orchestrate context instead.
	if err := o.speakText(o.baseContext, defaultApology); err != nil && !errors.Is(err, ErrNoSpeechSynthesizer) {
		span.RecordError(fmt.Errorf("failed to speak apology: %w", err))
	}
}

type playbackAttempt struct {
	source PlaybackSource
	run    func(context.Context) error
}

// playReply walks the reply sources in order of fidelity and returns the one
// that actually reached the user. Exhausting the chain is not an error, the
// assistant text is already on the transcript.
func (o *Orchestrator) playReply(ctx context.Context, response *agent.Response, assistantText string) PlaybackSource {
	attempts := []playbackAttempt{}
	if ref := stringValue(response.AudioURL); ref != "" {
		attempts = append(attempts, playbackAttempt{
			source: PlaybackRemoteAudio,
			run:    func(ctx context.Context) error { return o.playRemoteClip(ctx, PlaybackRemoteAudio, ref) },
		})
	}
	if ref := stringValue(response.FallbackAudioURL); ref != "" {
		attempts = append(attempts, playbackAttempt{
			source: PlaybackFallbackAudio,
			run:    func(ctx context.Context) error { return o.playRemoteClip(ctx, PlaybackFallbackAudio, ref) },
		})
	}
	if o.speech.isConfigured() {
		attempts = append(attempts, playbackAttempt{
			source: PlaybackLocalSpeech,
			run:    func(ctx context.Context) error { return o.speakText(ctx, assistantText) },
		})
	}

	if stringValue(response.AudioURL) == "" {
		next := PlaybackTextOnly
		if len(attempts) > 0 {
			next = attempts[0].source
		}
		o.emitEvent(events.NewAssistantPlaybackDegraded(string(PlaybackRemoteAudio), string(next), "reply carried no audio"))
	}

	span := trace.SpanFromContext(ctx)
	for i, attempt := range attempts {
		err := attempt.run(ctx)
		if err == nil {
			return attempt.source
		}

		span.RecordError(fmt.Errorf("failed to play %s reply: %w", attempt.source, err))

		next := PlaybackTextOnly
		if i+1 < len(attempts) {
			next = attempts[i+1].source
		}
		o.emitEvent(events.NewAssistantPlaybackDegraded(string(attempt.source), string(next), err.Error()))
	}

	return PlaybackTextOnly
}

func (o *Orchestrator) playRemoteClip(ctx context.Context, source PlaybackSource, ref string) error {
	if !o.audioOutput.isConfigured() {
		return ErrNoPlaybackClient
	}

	clip, contentType, err := o.agent.FetchAudio(ctx, ref)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "Fetched reply clip",
		"ref", ref,
		"content_type", contentType,
		"bytes", len(clip),
	)

	o.setState(StatePlaying)
	o.emitEvent(events.NewAssistantPlaybackStarted(string(source)))

	if err := o.audioOutput.Play(ctx, clip); err != nil {
		return err
	}

	o.emitEvent(events.NewAssistantPlaybackEnded(string(source)))
	return nil
}

func (o *Orchestrator) speakText(ctx context.Context, text string) error {
	if !o.speech.isConfigured() {
		return ErrNoSpeechSynthesizer
	}

	o.setState(StatePlaying)
	o.emitEvent(events.NewAssistantPlaybackStarted(string(PlaybackLocalSpeech)))

	if err := o.speech.Speak(ctx, text); err != nil {
		return err
	}

	o.emitEvent(events.NewAssistantPlaybackEnded(string(PlaybackLocalSpeech)))
	return nil
}

// assistantTextFor picks the transcript text for the assistant's side of the
// turn, falling back to a fixed apology when the reply carries no words.
func assistantTextFor(response *agent.Response) string {
	if text := stringValue(response.LLMText); text != "" {
		return text
	}
	if text := stringValue(response.FallbackText); text != "" {
		return text
	}
	return defaultApology
}
