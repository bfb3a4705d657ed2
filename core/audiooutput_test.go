package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/parleyvoice/parley-core/core/audio"
)

func TestAudioOutputFacadePlaysThroughConfiguredClient(t *testing.T) {
	playbackClient := &scriptedPlaybackClient{}

	facade := &audioOutput{}
	facade.Set(playbackClient)

	if err := facade.Play(context.Background(), []byte{0x01}); err != nil {
		t.Fatalf("expected playback to succeed, got %v", err)
	}
	if got := len(playbackClient.playedClips()); got != 1 {
		t.Fatalf("expected one played clip, got %d", got)
	}
}

func TestAudioOutputFacadeTreatsTypedNilAsUnconfigured(t *testing.T) {
	var playbackClient *scriptedPlaybackClient

	facade := &audioOutput{}
	facade.Set(playbackClient)

	if facade.isConfigured() {
		t.Fatalf("expected typed nil playback client to be treated as unconfigured")
	}
	if facade.base != nil {
		t.Fatalf("expected base client to be nil for typed nil playback client")
	}

	if err := facade.Play(context.Background(), []byte{0x01}); !errors.Is(err, ErrNoPlaybackClient) {
		t.Fatalf("expected %v, got %v", ErrNoPlaybackClient, err)
	}
}

func TestAudioOutputFacadeSetTypedNilClearsConfiguration(t *testing.T) {
	facade := &audioOutput{}
	facade.Set(&scriptedPlaybackClient{})
	if !facade.isConfigured() {
		t.Fatalf("expected facade to start configured")
	}

	var playbackClient *scriptedPlaybackClient
	facade.Set(playbackClient)

	if facade.isConfigured() {
		t.Fatalf("expected facade to become unconfigured after setting typed nil playback client")
	}
}

func TestAudioOutputFacadeUsesDefaultEncodingInfoWhenUnset(t *testing.T) {
	facade := &audioOutput{}

	if got, want := facade.EncodingInfo(), audio.GetDefaultEncodingInfo(); got != want {
		t.Fatalf("expected default encoding info %+v, got %+v", want, got)
	}
}
