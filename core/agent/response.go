package agent

import (
	"encoding/json"
	"fmt"
)

// Response is one backend reply to a submitted utterance. Nil fields mean the
// backend could not produce that leg of the reply.
type Response struct {
	SessionID        *string
	Transcription    *string
	LLMText          *string
	AudioURL         *string
	FallbackAudioURL *string
	FallbackText     *string
	Error            *string
}

type wireChatResponse struct {
	SessionID        *string `json:"session_id"`
	Transcription    *string `json:"transcription"`
	LLMText          *string `json:"llm_text"`
	AudioURL         *string `json:"audio_url"`
	FallbackAudioURL *string `json:"fallback_audio_url"`
	FallbackText     *string `json:"fallback_text"`
	Error            *string `json:"error"`
}

// HistoryEntry is one stored conversation entry, as the backend remembers it.
type HistoryEntry struct {
	Role    string
	Content string
}

type wireHistoryResponse struct {
	SessionID string             `json:"session_id"`
	History   []wireHistoryEntry `json:"history"`
}

type wireHistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StatusError reports a non-2xx backend reply. Reason is display-ready: the
// backend's own error message when it sent one, a generic status line
// otherwise.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Reason)
}

func newStatusError(statusCode int, body []byte) *StatusError {
	reason := fmt.Sprintf("Server error: %d", statusCode)
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error != "" {
		reason = wire.Error
	}
	return &StatusError{StatusCode: statusCode, Reason: reason}
}
