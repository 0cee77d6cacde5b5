// Package pcm converts between the wire audio representation (16-bit
// little-endian integer PCM, base64-wrapped) and the local capture/playback
// representation (32-bit float samples in [-1, 1]).
package pcm

import (
	"encoding/base64"
	"fmt"
	"math"
)

const (
	// CaptureRate is the sample rate for microphone audio sent upstream.
	CaptureRate = 16000
	// PlaybackRate is the sample rate of audio received for playback.
	PlaybackRate = 24000

	bytesPerSample = 2
	scale          = 32768.0
)

// Frame is a block of mono float samples at a fixed sample rate.
type Frame struct {
	Samples []float32
	Rate    int
}

// Duration returns the frame length in seconds.
func (f Frame) Duration() float64 {
	if f.Rate <= 0 {
		return 0
	}
	return float64(len(f.Samples)) / float64(f.Rate)
}

// WireChunk is the transport encoding of a frame: s16le PCM, base64 text,
// tagged with a MIME-style descriptor carrying the sample rate.
type WireChunk struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// MIMEForRate builds the descriptor for a given sample rate.
func MIMEForRate(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// MarshalPCM16 converts float samples to s16le bytes. Values are rounded and
// clamped to the int16 range, so an input of exactly 1.0 lands on 32767.
func MarshalPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, f := range samples {
		v := int(math.Round(float64(f) * scale))
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		s := int16(v)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// UnmarshalPCM16 converts s16le bytes to float samples via s/32768.
// A trailing odd byte is discarded.
func UnmarshalPCM16(b []byte) []float32 {
	n := len(b) / bytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float32(float64(s) / scale)
	}
	return out
}

// EncodeWire packs a float frame into a WireChunk at the frame's sample rate.
func EncodeWire(frame Frame) WireChunk {
	raw := MarshalPCM16(frame.Samples)
	return WireChunk{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MIMEType: MIMEForRate(frame.Rate),
	}
}

// DecodeWire interprets raw s16le bytes as interleaved channels and
// de-interleaves them into per-channel float sample slices. Byte lengths that
// are not a multiple of 2*channels are rounded down to the nearest full
// sample frame.
func DecodeWire(raw []byte, channels int) ([][]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("pcm: invalid channel count %d", channels)
	}
	frameBytes := bytesPerSample * channels
	perChannel := len(raw) / frameBytes
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, perChannel)
	}
	for i := 0; i < perChannel; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * bytesPerSample
			s := int16(raw[off]) | int16(raw[off+1])<<8
			out[c][i] = float32(float64(s) / scale)
		}
	}
	return out, nil
}

// DecodeWireMono decodes raw s16le bytes into a mono frame at the given rate.
func DecodeWireMono(raw []byte, rate int) (Frame, error) {
	chans, err := DecodeWire(raw, 1)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Samples: chans[0], Rate: rate}, nil
}

// DecodeBase64Wire decodes a base64 wire payload into a mono frame.
func DecodeBase64Wire(data string, rate int) (Frame, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Frame{}, fmt.Errorf("pcm: decode base64: %w", err)
	}
	return DecodeWireMono(raw, rate)
}

// RMSEnergy computes the root-mean-square energy of a float frame,
// in the range [0, 1].
func RMSEnergy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
