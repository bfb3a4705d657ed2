// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - assistant_playback.*
//   - conversation.*
//   - turn_state.*
//
// user_input events
//
//   - CaptureStarted (user_input.capture_started): a capture session opened
//     and the microphone is live.
//   - CaptureEnded (user_input.capture_ended): the capture session closed;
//     includes the size of the captured utterance.
//   - CaptureDenied (user_input.capture_denied): the platform refused
//     microphone access; includes guidance text suitable for display.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): reply playback
//     began; includes the source that is playing.
//   - AssistantPlaybackEnded (assistant_playback.ended): reply playback
//     finished; includes the source that played.
//   - AssistantPlaybackDegraded (assistant_playback.degraded): a playback
//     source was skipped or failed and a lesser source takes over.
//
// conversation events
//
//   - TranscriptEntryAdded (conversation.entry_added): an entry was appended
//     to the conversation transcript.
//
// turn_state events
//
//   - TurnStateChanged (turn_state.changed): the orchestrator moved between
//     states; includes both sides of the transition.
//   - TurnStarted (turn_state.started): a queued turn began processing.
//   - TurnCompleted (turn_state.completed): the current turn completed.
//   - TurnFailed (turn_state.failed): the current turn failed before a reply
//     could be played; includes a display-ready reason.
package events
