package audio

import (
	"fmt"
	"time"
)

const (
	// DefaultSampleRate is the rate of audio captured from the learner.
	DefaultSampleRate = 16000
	// DefaultOutputSampleRate is the rate of synthesised assistant speech.
	DefaultOutputSampleRate = 24000
	DefaultFormat           = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingLinear16, Channels: 1}
}

func GetDefaultOutputEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultOutputSampleRate, Format: EncodingLinear16, Channels: 1}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
	Channels   int
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// MIMEType describes raw PCM audio the way realtime model APIs expect it,
// e.g. "audio/pcm;rate=16000".
func (e EncodingInfo) MIMEType() string {
	switch e.Format {
	case EncodingMulaw:
		return fmt.Sprintf("audio/basic;rate=%d", e.SampleRate)
	default:
		return fmt.Sprintf("audio/pcm;rate=%d", e.SampleRate)
	}
}

// Duration returns the playback length of n bytes of audio.
func (e EncodingInfo) Duration(n int) time.Duration {
	bytesPerSecond := e.SampleRate * e.Format.ByteSize() * max(e.Channels, 1)
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bytesPerSecond)
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
