package orchestration

import "time"

// State is the orchestrator's current phase. Exactly one state is active at
// any time and every turn ends back at StateIdle.
type State string

const (
	// StateIdle is the resting state and the only one recording can start from.
	StateIdle State = "idle"
	// StateRecording means a capture session is open and the microphone is live.
	StateRecording State = "recording"
	// StateProcessing means an utterance was submitted and the reply is pending.
	StateProcessing State = "processing"
	// StatePlaying means reply audio or synthesized speech is rendering.
	StatePlaying State = "playing"
)

// Role attributes a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one line of the conversation record. At is zero for
// entries restored from backend history, whose original times are not kept.
type TranscriptEntry struct {
	Role Role
	Text string
	At   time.Time
}

// PlaybackSource identifies which leg of a reply actually rendered.
type PlaybackSource string

const (
	// PlaybackRemoteAudio is the backend's synthesized reply clip.
	PlaybackRemoteAudio PlaybackSource = "remote_audio"
	// PlaybackFallbackAudio is the backend's canned degraded-reply clip.
	PlaybackFallbackAudio PlaybackSource = "fallback_audio"
	// PlaybackLocalSpeech is on-device synthesis of the reply text.
	PlaybackLocalSpeech PlaybackSource = "local_speech"
	// PlaybackTextOnly means nothing rendered audibly and text carries the reply.
	PlaybackTextOnly PlaybackSource = "text_only"
)
