package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/parleyvoice/parley-core/core/audio"
)

// Client records utterances from the default capture device and renders
// reply clips on the default playback device. One Client holds both device
// handles so the shared miniaudio context has a single owner.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	closeOnce    sync.Once
	playbackClient
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// StartCapture opens the microphone and begins buffering an utterance.
// Failures are reported as capture denials, the usual cause on desktop
// systems being a permission or device-busy refusal.
func (c *Client) StartCapture(_ context.Context) error {
	if err := c.captureClient.Start(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrCaptureDenied, err)
	}
	return nil
}

// StopCapture closes the microphone and returns everything captured since
// StartCapture as a single WAV utterance.
func (c *Client) StopCapture() (audio.Utterance, error) {
	samples, err := c.captureClient.Stop()
	if err != nil {
		return audio.Utterance{}, err
	}

	return audio.Utterance{
		Data:     audio.EncodeWAV(samples, c.EncodingInfo()),
		MIMEType: audio.MIMETypeWAV,
	}, nil
}

// AbortCapture closes the microphone and discards the buffered audio.
func (c *Client) AbortCapture() error {
	_, err := c.captureClient.Stop()
	return err
}

// Play decodes a WAV reply clip and blocks until the playback device has
// drained it or ctx is cancelled.
func (c *Client) Play(ctx context.Context, clip []byte) error {
	samples, info, err := audio.DecodeWAV(clip)
	if err != nil {
		return fmt.Errorf("failed to decode reply clip: %w", err)
	}

	if err := c.playbackClient.Ensure(c.audioContext, info); err != nil {
		return err
	}
	if err := c.playbackClient.Start(); err != nil {
		return err
	}

	if err := c.playbackClient.Enqueue(samples); err != nil {
		return err
	}

	done := make(chan struct{})
	c.playbackClient.Mark("clip end", func(string) { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.playbackClient.ClearBuffer()
		return ctx.Err()
	}
}

// Close releases both devices and the shared context. The orchestrator
// closes capture and playback independently, so Close tolerates being
// called more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.captureClient.Uninit()
		_ = c.playbackClient.Uninit()
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
	})
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
