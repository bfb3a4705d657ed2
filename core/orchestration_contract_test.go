package orchestration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parleyvoice/parley-core/core/agent"
	"github.com/parleyvoice/parley-core/core/audio"
	"github.com/parleyvoice/parley-core/internal/utils"
)

func TestHappyPathPlaysRemoteReply(t *testing.T) {
	captureClient := &scriptedCaptureClient{
		utterance: audio.Utterance{Data: []byte{0x01, 0x02, 0x03}, MIMEType: audio.MIMETypeWAV},
	}
	playbackClient := &scriptedPlaybackClient{}
	agentClient := &scriptedAgentClient{
		response: &agent.Response{
			Transcription: utils.Ptr("hello"),
			LLMText:       utils.Ptr("hi there"),
			AudioURL:      utils.Ptr("/static/reply.wav"),
		},
		clips: map[string][]byte{"/static/reply.wav": {0xAA, 0xBB}},
	}

	o := NewOrchestrator(
		WithCaptureClient(captureClient),
		WithPlaybackClient(playbackClient),
		WithAgentClient(agentClient),
	)
	defer o.Close()

	statesMu := sync.Mutex{}
	states := []State{}
	degradedCalls := atomic.Int32{}
	turnDone := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx,
		WithStateChangedCallback(func(from, to State) {
			statesMu.Lock()
			states = append(states, to)
			statesMu.Unlock()

			if to == StateIdle {
				select {
				case turnDone <- struct{}{}:
				default:
				}
			}
		}),
		WithPlaybackDegradedCallback(func(from, to PlaybackSource, reason string) {
			degradedCalls.Add(1)
		}),
	)

	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected recording to start, got %v", err)
	}
	if err := o.StopRecording(); err != nil {
		t.Fatalf("expected recording to stop, got %v", err)
	}

	select {
	case <-turnDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn to finish")
	}

	time.Sleep(50 * time.Millisecond)

	expectedStates := []State{StateRecording, StateProcessing, StatePlaying, StateIdle}
	statesMu.Lock()
	gotStates := append([]State(nil), states...)
	statesMu.Unlock()
	if len(gotStates) != len(expectedStates) {
		t.Fatalf("expected state sequence %v, got %v", expectedStates, gotStates)
	}
	for i, want := range expectedStates {
		if gotStates[i] != want {
			t.Fatalf("expected state sequence %v, got %v", expectedStates, gotStates)
		}
	}

	expectedTranscript := []TranscriptEntry{
		{Role: RoleUser, Text: "hello"},
		{Role: RoleAssistant, Text: "hi there"},
	}
	transcript := o.Transcript()
	if len(transcript) != len(expectedTranscript) {
		t.Fatalf("expected %d transcript entries, got %d", len(expectedTranscript), len(transcript))
	}
	for i, want := range expectedTranscript {
		if transcript[i].Role != want.Role || transcript[i].Text != want.Text {
			t.Fatalf("expected transcript entry %d to be %s: %q, got %s: %q",
				i, want.Role, want.Text, transcript[i].Role, transcript[i].Text)
		}
	}

	if got := degradedCalls.Load(); got != 0 {
		t.Fatalf("expected no degraded playback, got %d degradations", got)
	}

	played := playbackClient.playedClips()
	if len(played) != 1 || !bytes.Equal(played[0], []byte{0xAA, 0xBB}) {
		t.Fatalf("expected the fetched reply clip to play once, got %v", played)
	}
}

func TestStartRecordingWhileRecordingIsNoop(t *testing.T) {
	captureClient := &scriptedCaptureClient{}

	o := NewOrchestrator(WithCaptureClient(captureClient))
	defer o.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Orchestrate(ctx)

	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected recording to start, got %v", err)
	}
	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected repeated start to be a no-op, got %v", err)
	}

	if got := captureClient.startCalls.Load(); got != 1 {
		t.Fatalf("expected one capture session, got %d", got)
	}
	if got := o.State(); got != StateRecording {
		t.Fatalf("expected state %s, got %s", StateRecording, got)
	}
}

func TestStartRecordingWhileProcessingIsRejected(t *testing.T) {
	captureClient := &scriptedCaptureClient{
		utterance: audio.Utterance{Data: []byte{0x01}, MIMEType: audio.MIMETypeWAV},
	}
	agentClient := &scriptedAgentClient{
		response:  &agent.Response{LLMText: utils.Ptr("hi there")},
		chatBlock: make(chan struct{}),
	}

	o := NewOrchestrator(WithCaptureClient(captureClient), WithAgentClient(agentClient))
	defer o.Close()

	turnDone := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithStateChangedCallback(func(from, to State) {
		if to == StateIdle {
			select {
			case turnDone <- struct{}{}:
			default:
			}
		}
	}))

	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected recording to start, got %v", err)
	}
	if err := o.StopRecording(); err != nil {
		t.Fatalf("expected recording to stop, got %v", err)
	}

	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected start during processing to be a no-op, got %v", err)
	}
	if got := captureClient.startCalls.Load(); got != 1 {
		t.Fatalf("expected no new capture session during processing, got %d sessions", got)
	}
	if got := o.State(); got != StateProcessing {
		t.Fatalf("expected state %s, got %s", StateProcessing, got)
	}

	close(agentClient.chatBlock)

	select {
	case <-turnDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn to finish")
	}
}

func TestStopRecordingWhileIdleIsNoop(t *testing.T) {
	captureClient := &scriptedCaptureClient{}
	agentClient := &scriptedAgentClient{response: &agent.Response{}}

	o := NewOrchestrator(WithCaptureClient(captureClient), WithAgentClient(agentClient))
	defer o.Close()

	stateChanges := atomic.Int32{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithStateChangedCallback(func(from, to State) {
		stateChanges.Add(1)
	}))

	if err := o.StopRecording(); err != nil {
		t.Fatalf("expected stop while idle to be a no-op, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := stateChanges.Load(); got != 0 {
		t.Fatalf("expected no state changes, got %d", got)
	}
	if got := agentClient.chatCalls.Load(); got != 0 {
		t.Fatalf("expected no turn submission, got %d", got)
	}
	if got := captureClient.stopCalls.Load(); got != 0 {
		t.Fatalf("expected capture client to stay untouched, got %d stop calls", got)
	}
}

func TestToggleRecordingStartsThenSubmits(t *testing.T) {
	captureClient := &scriptedCaptureClient{
		utterance: audio.Utterance{Data: []byte{0x01}, MIMEType: audio.MIMETypeWAV},
	}
	agentClient := &scriptedAgentClient{
		response:  &agent.Response{LLMText: utils.Ptr("hi there")},
		chatBlock: make(chan struct{}),
	}

	o := NewOrchestrator(WithCaptureClient(captureClient), WithAgentClient(agentClient))
	defer o.Close()

	turnDone := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithStateChangedCallback(func(from, to State) {
		if to == StateIdle {
			select {
			case turnDone <- struct{}{}:
			default:
			}
		}
	}))

	if err := o.ToggleRecording(); err != nil {
		t.Fatalf("expected toggle to start recording, got %v", err)
	}
	if got := o.State(); got != StateRecording {
		t.Fatalf("expected state %s after first toggle, got %s", StateRecording, got)
	}

	if err := o.ToggleRecording(); err != nil {
		t.Fatalf("expected toggle to stop recording, got %v", err)
	}
	if got := o.State(); got != StateProcessing {
		t.Fatalf("expected state %s after second toggle, got %s", StateProcessing, got)
	}

	if err := o.ToggleRecording(); err != nil {
		t.Fatalf("expected toggle during processing to be a no-op, got %v", err)
	}
	if got := captureClient.startCalls.Load(); got != 1 {
		t.Fatalf("expected one capture session, got %d", got)
	}

	close(agentClient.chatBlock)

	select {
	case <-turnDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn to finish")
	}
}

func TestDeniedCaptureSurfacesGuidance(t *testing.T) {
	captureClient := &scriptedCaptureClient{
		startErr: fmt.Errorf("%w: device busy", audio.ErrCaptureDenied),
	}

	o := NewOrchestrator(WithCaptureClient(captureClient))
	defer o.Close()

	guidanceCh := make(chan string, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithCaptureDeniedCallback(func(guidance string) {
		select {
		case guidanceCh <- guidance:
		default:
		}
	}))

	err := o.StartRecording()
	if err == nil {
		t.Fatalf("expected denied capture to error")
	}
	if !errors.Is(err, audio.ErrCaptureDenied) {
		t.Fatalf("expected error to wrap the capture denial, got %v", err)
	}

	select {
	case guidance := <-guidanceCh:
		if guidance == "" {
			t.Fatalf("expected display-ready guidance, got an empty string")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for capture denied callback")
	}

	if got := o.State(); got != StateIdle {
		t.Fatalf("expected orchestrator to return to %s, got %s", StateIdle, got)
	}
}

func TestTurnSubmissionAfterCloseIsRejected(t *testing.T) {
	captureClient := &scriptedCaptureClient{
		utterance: audio.Utterance{Data: []byte{0x01}, MIMEType: audio.MIMETypeWAV},
	}

	o := NewOrchestrator(WithCaptureClient(captureClient))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Orchestrate(ctx)

	o.Close()

	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected recording to start, got %v", err)
	}
	if err := o.StopRecording(); !errors.Is(err, ErrOrchestratorClosed) {
		t.Fatalf("expected %v, got %v", ErrOrchestratorClosed, err)
	}
	if got := o.State(); got != StateIdle {
		t.Fatalf("expected orchestrator to return to %s, got %s", StateIdle, got)
	}
}

func TestCloseWhileRecordingAbortsCapture(t *testing.T) {
	captureClient := &scriptedCaptureClient{
		utterance: audio.Utterance{Data: []byte{0x01}, MIMEType: audio.MIMETypeWAV},
	}

	o := NewOrchestrator(WithCaptureClient(captureClient))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Orchestrate(ctx)

	if err := o.StartRecording(); err != nil {
		t.Fatalf("expected recording to start, got %v", err)
	}

	o.Close()

	if got := captureClient.abortCalls.Load(); got != 1 {
		t.Fatalf("expected close to abort the open capture session, got %d aborts", got)
	}

	if err := o.StopRecording(); err != nil {
		t.Fatalf("expected stop after close to be a no-op, got %v", err)
	}
	if got := captureClient.stopCalls.Load(); got != 0 {
		t.Fatalf("expected no capture stop after abort, got %d", got)
	}
	if got := o.State(); got != StateIdle {
		t.Fatalf("expected orchestrator to return to %s, got %s", StateIdle, got)
	}
}

func TestHistoryRestoreBackfillsTranscript(t *testing.T) {
	agentClient := &scriptedAgentClient{
		history: []agent.HistoryEntry{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
		},
	}

	o := NewOrchestrator(WithAgentClient(agentClient), WithHistoryRestore())
	defer o.Close()

	restored := make(chan TranscriptEntry, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o.Orchestrate(ctx, WithTranscriptEntryCallback(func(entry TranscriptEntry) {
		select {
		case restored <- entry:
		default:
		}
	}))

	for i := 0; i < len(agentClient.history); i++ {
		select {
		case <-restored:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for restored transcript entry %d", i)
		}
	}

	transcript := o.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected 2 restored entries, got %d", len(transcript))
	}
	if transcript[0].Role != RoleUser || transcript[0].Text != "hello" {
		t.Fatalf("expected first entry to be %s: %q, got %s: %q", RoleUser, "hello", transcript[0].Role, transcript[0].Text)
	}
	if transcript[1].Role != RoleAssistant || transcript[1].Text != "hi there" {
		t.Fatalf("expected second entry to be %s: %q, got %s: %q", RoleAssistant, "hi there", transcript[1].Role, transcript[1].Text)
	}
	if !transcript[0].At.IsZero() {
		t.Fatalf("expected restored entries to carry no timestamp, got %v", transcript[0].At)
	}
}

type scriptedCaptureClient struct {
	utterance audio.Utterance
	startErr  error
	stopErr   error

	startCalls atomic.Int32
	stopCalls  atomic.Int32
	abortCalls atomic.Int32
}

func (s *scriptedCaptureClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *scriptedCaptureClient) StartCapture(ctx context.Context) error {
	s.startCalls.Add(1)
	return s.startErr
}

func (s *scriptedCaptureClient) StopCapture() (audio.Utterance, error) {
	s.stopCalls.Add(1)
	if s.stopErr != nil {
		return audio.Utterance{}, s.stopErr
	}
	return s.utterance, nil
}

func (s *scriptedCaptureClient) AbortCapture() error {
	s.abortCalls.Add(1)
	return nil
}

func (s *scriptedCaptureClient) Close() {}

type scriptedPlaybackClient struct {
	playErr error

	mu     sync.Mutex
	played [][]byte
}

func (s *scriptedPlaybackClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *scriptedPlaybackClient) Play(ctx context.Context, clip []byte) error {
	if s.playErr != nil {
		return s.playErr
	}

	s.mu.Lock()
	s.played = append(s.played, append([]byte(nil), clip...))
	s.mu.Unlock()
	return nil
}

func (s *scriptedPlaybackClient) Close() {}

func (s *scriptedPlaybackClient) playedClips() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.played...)
}

type scriptedSynthesizer struct {
	unavailable bool
	speakErr    error
	spoken      chan string

	speakCalls atomic.Int32
}

func (s *scriptedSynthesizer) Available() bool { return !s.unavailable }

func (s *scriptedSynthesizer) Speak(ctx context.Context, text string) error {
	s.speakCalls.Add(1)
	if s.spoken != nil {
		select {
		case s.spoken <- text:
		default:
		}
	}
	return s.speakErr
}

type scriptedAgentClient struct {
	response *agent.Response
	chatErr  error
	// chatBlock, when set, holds ChatTurn until the channel is closed.
	chatBlock chan struct{}

	clips    map[string][]byte
	fetchErr error
	history  []agent.HistoryEntry

	chatCalls  atomic.Int32
	fetchCalls atomic.Int32

	mu          sync.Mutex
	fetchedRefs []string
}

func (s *scriptedAgentClient) ChatTurn(ctx context.Context, sessionID string, utterance audio.Utterance) (*agent.Response, error) {
	s.chatCalls.Add(1)

	if s.chatBlock != nil {
		select {
		case <-s.chatBlock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return s.response, nil
}

func (s *scriptedAgentClient) FetchAudio(ctx context.Context, ref string) ([]byte, string, error) {
	s.fetchCalls.Add(1)
	s.mu.Lock()
	s.fetchedRefs = append(s.fetchedRefs, ref)
	s.mu.Unlock()

	if s.fetchErr != nil {
		return nil, "", s.fetchErr
	}
	clip, ok := s.clips[ref]
	if !ok {
		return nil, "", fmt.Errorf("no clip stored for %s", ref)
	}
	return clip, "audio/wav", nil
}

func (s *scriptedAgentClient) History(ctx context.Context, sessionID string) ([]agent.HistoryEntry, error) {
	return s.history, nil
}

func (s *scriptedAgentClient) fetchedAudioRefs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetchedRefs...)
}
