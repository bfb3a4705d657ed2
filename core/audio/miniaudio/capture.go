package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/parleyvoice/parley-core/core/audio"
)

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	mu sync.Mutex

	// bufMu guards the utterance buffer against the device data callback.
	bufMu     sync.Mutex
	buffer    []byte
	capturing bool
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = sampleRate
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = 480
	c.config.Periods = 3

	c.audioContext = audioContext

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}

			c.bufMu.Lock()
			if c.capturing {
				c.buffer = append(c.buffer, pInput[:n]...)
			}
			c.bufMu.Unlock()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

func (c *captureClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.bufMu.Lock()
	c.buffer = nil
	c.capturing = true
	c.bufMu.Unlock()

	if err := c.device.Start(); err != nil {
		c.bufMu.Lock()
		c.capturing = false
		c.bufMu.Unlock()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

// Stop halts the capture device and returns the buffered utterance samples.
func (c *captureClient) Stop() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bufMu.Lock()
	c.capturing = false
	samples := c.buffer
	c.buffer = nil
	c.bufMu.Unlock()

	if c.device == nil {
		return nil, fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return samples, nil
	}

	if err := c.device.Stop(); err != nil {
		return samples, fmt.Errorf("failed to stop capture device: %w", err)
	}

	return samples, nil
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.bufMu.Lock()
	c.buffer = nil
	c.capturing = false
	c.bufMu.Unlock()

	return nil
}
