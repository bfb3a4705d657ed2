package orchestration

import events "github.com/parleyvoice/parley-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.TurnStateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(State(typedEvent.From), State(typedEvent.To))
			}
		case events.TranscriptEntryAdded:
			if opts.onTranscriptEntry != nil {
				opts.onTranscriptEntry(TranscriptEntry{
					Role: Role(typedEvent.Role),
					Text: typedEvent.Text,
					At:   typedEvent.Timestamp(),
				})
			}
		case events.CaptureDenied:
			if opts.onCaptureDenied != nil {
				opts.onCaptureDenied(typedEvent.Guidance)
			}
		case events.TurnFailed:
			if opts.onTurnFailed != nil {
				opts.onTurnFailed(typedEvent.Reason)
			}
		case events.AssistantPlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(PlaybackSource(typedEvent.Source))
			}
		case events.AssistantPlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(PlaybackSource(typedEvent.Source))
			}
		case events.AssistantPlaybackDegraded:
			if opts.onPlaybackDegraded != nil {
				opts.onPlaybackDegraded(PlaybackSource(typedEvent.From), PlaybackSource(typedEvent.To), typedEvent.Reason)
			}
		}
	}
}
