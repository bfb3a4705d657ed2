package audio

import "errors"

// ErrCaptureDenied marks capture failures caused by the platform refusing
// access to an input device, as opposed to device errors mid capture.
var ErrCaptureDenied = errors.New("audio capture denied")

const (
	MIMETypeWAV  = "audio/wav"
	MIMETypeWebM = "audio/webm"
	MIMETypeMP3  = "audio/mpeg"
	MIMETypeOgg  = "audio/ogg"
)

// Utterance is one finished stretch of captured user speech, encoded and
// ready to submit.
type Utterance struct {
	Data     []byte
	MIMEType string
}

func (u Utterance) IsZero() bool {
	return len(u.Data) == 0
}

// FileExt returns the filename extension matching the utterance's MIME type,
// without the leading dot.
func (u Utterance) FileExt() string {
	switch u.MIMEType {
	case MIMETypeWAV:
		return "wav"
	case MIMETypeWebM:
		return "webm"
	case MIMETypeMP3:
		return "mp3"
	case MIMETypeOgg:
		return "ogg"
	}
	return "bin"
}
