package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/parleyvoice/parley-core/core/audio"
)

func TestWithCaptureClientConfiguresAudioInputFacade(t *testing.T) {
	captureClient := &scriptedCaptureClient{}
	o := NewOrchestrator(WithCaptureClient(captureClient))

	if !o.audioInput.IsConfigured() {
		t.Fatalf("expected audio input facade to be configured")
	}
	if o.audioInput.base != captureClient {
		t.Fatalf("expected facade client to match configured capture client")
	}
}

func TestAudioInputFacadeUsesDefaultEncodingInfoWhenUnset(t *testing.T) {
	facade := &audioInput{}

	if facade.IsConfigured() {
		t.Fatalf("expected unset facade to be unconfigured")
	}

	if got, want := facade.EncodingInfo(), audio.GetDefaultEncodingInfo(); got != want {
		t.Fatalf("expected default encoding info %+v, got %+v", want, got)
	}
}

func TestAudioInputFacadeTreatsTypedNilAsUnconfigured(t *testing.T) {
	var captureClient *scriptedCaptureClient

	facade := &audioInput{}
	facade.Set(captureClient)

	if facade.IsConfigured() {
		t.Fatalf("expected typed nil capture client to be treated as unconfigured")
	}
	if err := facade.Open(context.Background()); !errors.Is(err, ErrNoCaptureClient) {
		t.Fatalf("expected %v, got %v", ErrNoCaptureClient, err)
	}
}

func TestAudioInputFacadeOpensOneSessionAtATime(t *testing.T) {
	captureClient := &scriptedCaptureClient{}

	facade := &audioInput{}
	facade.Set(captureClient)

	if err := facade.Open(context.Background()); err != nil {
		t.Fatalf("expected capture session to open, got %v", err)
	}
	if err := facade.Open(context.Background()); err != nil {
		t.Fatalf("expected repeated open to be a no-op, got %v", err)
	}

	if got := captureClient.startCalls.Load(); got != 1 {
		t.Fatalf("expected one capture session, got %d", got)
	}
	if !facade.IsCapturing() {
		t.Fatalf("expected facade to report an open capture session")
	}
}

func TestAudioInputFacadeStopWithoutSessionIsNoop(t *testing.T) {
	captureClient := &scriptedCaptureClient{}

	facade := &audioInput{}
	facade.Set(captureClient)

	utterance, ok, err := facade.Stop()
	if err != nil {
		t.Fatalf("expected stop without session to be a no-op, got %v", err)
	}
	if ok {
		t.Fatalf("expected stop without session to report no session")
	}
	if !utterance.IsZero() {
		t.Fatalf("expected no utterance, got %+v", utterance)
	}
	if got := captureClient.stopCalls.Load(); got != 0 {
		t.Fatalf("expected capture client to stay untouched, got %d stop calls", got)
	}
}

func TestAudioInputFacadeRetriesAfterFailedOpen(t *testing.T) {
	captureClient := &scriptedCaptureClient{startErr: errors.New("device busy")}

	facade := &audioInput{}
	facade.Set(captureClient)

	if err := facade.Open(context.Background()); err == nil {
		t.Fatalf("expected failed open to surface the error")
	}
	if facade.IsCapturing() {
		t.Fatalf("expected failed open to leave no session behind")
	}

	captureClient.startErr = nil
	if err := facade.Open(context.Background()); err != nil {
		t.Fatalf("expected open to work after the device freed up, got %v", err)
	}
	if got := captureClient.startCalls.Load(); got != 2 {
		t.Fatalf("expected two open attempts, got %d", got)
	}
}
