package events

// KindTranscriptEntryAdded identifies appends to the conversation transcript.
const KindTranscriptEntryAdded Kind = "conversation.entry_added"

// TranscriptEntryAdded carries an entry appended to the conversation
// transcript.
type TranscriptEntryAdded struct {
	Base
	Role string
	Text string
}

// NewTranscriptEntryAdded creates a transcript entry added event.
func NewTranscriptEntryAdded(role, text string) TranscriptEntryAdded {
	return TranscriptEntryAdded{Base: NewBase(KindTranscriptEntryAdded), Role: role, Text: text}
}
