package events

const (
	// KindCaptureStarted identifies the opening of a capture session.
	KindCaptureStarted Kind = "user_input.capture_started"
	// KindCaptureEnded identifies the close of a capture session.
	KindCaptureEnded Kind = "user_input.capture_ended"
	// KindCaptureDenied identifies refused microphone access.
	KindCaptureDenied Kind = "user_input.capture_denied"
)

// CaptureStarted marks when a capture session opens and the microphone is live.
type CaptureStarted struct{ Base }

// NewCaptureStarted creates a capture started event.
func NewCaptureStarted() CaptureStarted {
	return CaptureStarted{Base: NewBase(KindCaptureStarted)}
}

// CaptureEnded marks when a capture session closes.
type CaptureEnded struct {
	Base
	Bytes int
}

// NewCaptureEnded creates a capture ended event.
func NewCaptureEnded(bytes int) CaptureEnded {
	return CaptureEnded{Base: NewBase(KindCaptureEnded), Bytes: bytes}
}

// CaptureDenied marks refused microphone access. Guidance is display-ready.
type CaptureDenied struct {
	Base
	Guidance string
}

// NewCaptureDenied creates a capture denied event.
func NewCaptureDenied(guidance string) CaptureDenied {
	return CaptureDenied{Base: NewBase(KindCaptureDenied), Guidance: guidance}
}
