// Package audio provides microphone capture and speaker output for live
// voice sessions. Two backends are available: an ffmpeg/ffplay subprocess
// pair that needs no cgo, and a portaudio backend that talks to the sound
// device directly.
package audio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/docuvox/docuvox/pkg/core/pcm"
)

// Backend names accepted by NewMicrophone and NewSpeaker.
const (
	BackendFFmpeg    = "ffmpeg"
	BackendPortAudio = "portaudio"
)

// Microphone captures audio at pcm.CaptureRate. Frames delivers captured
// frames until the device is closed or fails; the channel is closed when
// capture ends.
type Microphone interface {
	Start() error
	Frames() <-chan pcm.Frame
	Close() error
}

// Speaker renders audio at pcm.PlaybackRate. Reset discards anything
// buffered in the device so the next Play starts clean.
type Speaker interface {
	Start() error
	Play(frame pcm.Frame) error
	Reset() error
	Close() error
}

// NewMicrophone creates a capture device for the named backend.
func NewMicrophone(backend string, log zerolog.Logger) (Microphone, error) {
	switch backend {
	case "", BackendFFmpeg:
		return NewFFmpegMicrophone(log), nil
	case BackendPortAudio:
		return NewPortAudioMicrophone(log), nil
	default:
		return nil, fmt.Errorf("audio: unknown capture backend %q", backend)
	}
}

// NewSpeaker creates an output device for the named backend.
func NewSpeaker(backend string, log zerolog.Logger) (Speaker, error) {
	switch backend {
	case "", BackendFFmpeg:
		return NewFFplaySpeaker(log), nil
	case BackendPortAudio:
		return NewPortAudioSpeaker(log), nil
	default:
		return nil, fmt.Errorf("audio: unknown output backend %q", backend)
	}
}
