package events

const (
	// KindAssistantPlaybackStarted identifies playback start for the current reply.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackEnded identifies playback completion for the current reply.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
	// KindAssistantPlaybackDegraded identifies a fall from one playback source to a lesser one.
	KindAssistantPlaybackDegraded Kind = "assistant_playback.degraded"
)

// AssistantPlaybackStarted marks the start of reply playback.
type AssistantPlaybackStarted struct {
	Base
	Source string
}

// NewAssistantPlaybackStarted creates an assistant playback started event.
func NewAssistantPlaybackStarted(source string) AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted), Source: source}
}

// AssistantPlaybackEnded marks the end of reply playback.
type AssistantPlaybackEnded struct {
	Base
	Source string
}

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded(source string) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), Source: source}
}

// AssistantPlaybackDegraded marks a fall from one playback source to a lesser
// one. Reason is display-ready.
type AssistantPlaybackDegraded struct {
	Base
	From   string
	To     string
	Reason string
}

// NewAssistantPlaybackDegraded creates an assistant playback degraded event.
func NewAssistantPlaybackDegraded(from, to, reason string) AssistantPlaybackDegraded {
	return AssistantPlaybackDegraded{Base: NewBase(KindAssistantPlaybackDegraded), From: from, To: to, Reason: reason}
}
