package audio

import (
	"encoding/binary"
	"fmt"
)

// Format codes from the RIFF specification.
const (
	wavFormatPCM   = 1
	wavFormatALaw  = 6
	wavFormatMulaw = 7
)

const wavHeaderSize = 44

// EncodeWAV wraps single-channel samples in a minimal WAV container.
func EncodeWAV(samples []byte, info EncodingInfo) []byte {
	const channels = 1
	sampleSize := info.Format.ByteSize()
	byteRate := info.SampleRate * channels * sampleSize

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(wavHeaderSize-8+len(samples)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavFormatCode(info.Format))
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(info.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*sampleSize))
	binary.LittleEndian.PutUint16(header[34:36], uint16(sampleSize*8))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(samples)))

	return append(header, samples...)
}

// DecodeWAV extracts single-channel samples and their encoding from a WAV
// container. Multi-channel and compressed streams beyond a-law/mu-law are
// rejected.
func DecodeWAV(data []byte) ([]byte, EncodingInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, EncodingInfo{}, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var info EncodingInfo
	var samples []byte
	sawFormat := false

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+8:]
		if chunkSize > len(body) {
			chunkSize = len(body)
		}
		chunk := body[:chunkSize]

		switch chunkID {
		case "fmt ":
			if len(chunk) < 16 {
				return nil, EncodingInfo{}, fmt.Errorf("malformed fmt chunk")
			}
			format, err := wavEncodingFormat(binary.LittleEndian.Uint16(chunk[0:2]))
			if err != nil {
				return nil, EncodingInfo{}, err
			}
			if channels := binary.LittleEndian.Uint16(chunk[2:4]); channels != 1 {
				return nil, EncodingInfo{}, fmt.Errorf("unsupported channel count %d, only mono is supported", channels)
			}
			if bits := binary.LittleEndian.Uint16(chunk[14:16]); int(bits) != format.ByteSize()*8 {
				return nil, EncodingInfo{}, fmt.Errorf("unsupported bit depth %d for %s", bits, format.Name())
			}
			info = EncodingInfo{
				SampleRate: int(binary.LittleEndian.Uint32(chunk[4:8])),
				Format:     format,
			}
			sawFormat = true
		case "data":
			samples = chunk
		}

		offset += 8 + chunkSize
		// Chunks are word aligned.
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !sawFormat || samples == nil {
		return nil, EncodingInfo{}, fmt.Errorf("missing fmt or data chunk")
	}
	return samples, info, nil
}

func wavFormatCode(format encodingFormat) uint16 {
	switch format {
	case EncodingALaw:
		return wavFormatALaw
	case EncodingMulaw:
		return wavFormatMulaw
	}
	return wavFormatPCM
}

func wavEncodingFormat(code uint16) (encodingFormat, error) {
	switch code {
	case wavFormatPCM:
		return EncodingLinear16, nil
	case wavFormatALaw:
		return EncodingALaw, nil
	case wavFormatMulaw:
		return EncodingMulaw, nil
	}
	return "", fmt.Errorf("unsupported format code %d", code)
}
