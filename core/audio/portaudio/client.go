package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/parleyvoice/parley-core/core/audio"
)

// DefaultBufferSize is the per-read frame count, about 30ms of audio at the
// default sample rate.
const DefaultBufferSize = 480

// Client records utterances and renders reply clips through a shared
// full-duplex PortAudio stream. Capture and playback never overlap, so the
// stream can be reopened between phases when a reply clip arrives at a
// different sample rate.
type Client struct {
	bufferSize int
	sampleRate int
	stream     *portaudio.Stream

	in  []int16
	out []int16

	mu        sync.Mutex
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once

	// bufMu guards the utterance buffer against the capture read loop.
	bufMu    sync.Mutex
	captured bytes.Buffer
}

func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	client := &Client{
		bufferSize: bufferSize,
		in:         make([]int16, bufferSize),
		out:        make([]int16, bufferSize),
	}

	if err := client.ensureRate(audio.DefaultSampleRate); err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return client, nil
}

// ensureRate reopens the stream when the wanted sample rate differs from the
// one it was opened with. Callers must hold mu.
func (c *Client) ensureRate(sampleRate int) error {
	if c.stream != nil && c.sampleRate == sampleRate {
		return nil
	}

	if c.stream != nil {
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("failed to close stream: %w", err)
		}
		c.stream = nil
	}

	stream, err := portaudio.OpenDefaultStream(1, 1, float64(sampleRate), c.bufferSize, c.in, c.out)
	if err != nil {
		return fmt.Errorf("failed to open stream at %d Hz: %w", sampleRate, err)
	}

	c.stream = stream
	c.sampleRate = sampleRate
	return nil
}

// StartCapture opens the microphone and begins buffering an utterance.
func (c *Client) StartCapture(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopCh != nil {
		return nil
	}

	if err := c.ensureRate(audio.DefaultSampleRate); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrCaptureDenied, err)
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrCaptureDenied, err)
	}

	c.bufMu.Lock()
	c.captured.Reset()
	c.bufMu.Unlock()

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.readLoop(c.stopCh, c.doneCh)

	return nil
}

func (c *Client) readLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		default:
			if err := c.stream.Read(); err != nil {
				log.Printf("Failed to read from capture stream: %v", err)
				continue
			}

			c.bufMu.Lock()
			binary.Write(&c.captured, binary.LittleEndian, c.in)
			c.bufMu.Unlock()
		}
	}
}

// StopCapture closes the microphone and returns everything captured since
// StartCapture as a single WAV utterance.
func (c *Client) StopCapture() (audio.Utterance, error) {
	samples, err := c.endCapture()
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
	_, err := c.endCapture()
	return err
}

func (c *Client) endCapture() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopCh == nil {
		return nil, nil
	}

	close(c.stopCh)
	c.stopCh = nil
	<-c.doneCh

	c.bufMu.Lock()
	samples := append([]byte(nil), c.captured.Bytes()...)
	c.captured.Reset()
	c.bufMu.Unlock()

	if err := c.stream.Stop(); err != nil {
		return samples, fmt.Errorf("failed to stop stream: %w", err)
	}

	return samples, nil
}

// Play decodes a WAV reply clip and writes it through the stream, blocking
// until the clip has drained or ctx is cancelled.
func (c *Client) Play(ctx context.Context, clip []byte) error {
	samples, info, err := audio.DecodeWAV(clip)
	if err != nil {
		return fmt.Errorf("failed to decode reply clip: %w", err)
	}
	if info.Format != audio.EncodingLinear16 {
		return fmt.Errorf("unsupported playback format %s", info.Format.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopCh != nil {
		return fmt.Errorf("capture session in progress")
	}

	if err := c.ensureRate(info.SampleRate); err != nil {
		return err
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}

	chunkBytes := c.bufferSize * 2
	for offset := 0; offset < len(samples); offset += chunkBytes {
		select {
		case <-ctx.Done():
			c.stream.Abort()
			return ctx.Err()
		default:
		}

		chunk := samples[offset:min(offset+chunkBytes, len(samples))]
		if len(chunk) < chunkBytes {
			padded := make([]byte, chunkBytes)
			copy(padded, chunk)
			chunk = padded
		}

		binary.Read(bytes.NewReader(chunk), binary.LittleEndian, c.out)
		if err := c.stream.Write(); err != nil {
			c.stream.Abort()
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to drain stream: %w", err)
	}

	return nil
}

// Close stops any capture in progress and releases the stream. The
// orchestrator closes capture and playback independently, so Close tolerates
// being called more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.stopCh != nil {
			close(c.stopCh)
			c.stopCh = nil
			<-c.doneCh
		}

		if c.stream != nil {
			c.stream.Close()
			c.stream = nil
		}
		portaudio.Terminate()
	})
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
