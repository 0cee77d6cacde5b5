package pcm

import (
	"encoding/base64"
	"math"
	"testing"
)

func TestMarshalPCM16KnownValues(t *testing.T) {
	// 3-sample frame at 16 kHz must land on [16384, -16384, 0].
	raw := MarshalPCM16([]float32{0.5, -0.5, 0.0})

	want := []int16{16384, -16384, 0}
	if len(raw) != len(want)*2 {
		t.Fatalf("expected %d bytes, got %d", len(want)*2, len(raw))
	}
	for i, w := range want {
		got := int16(raw[i*2]) | int16(raw[i*2+1])<<8
		if got != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestMarshalPCM16Clamps(t *testing.T) {
	raw := MarshalPCM16([]float32{1.0, -1.0})
	got0 := int16(raw[0]) | int16(raw[1])<<8
	got1 := int16(raw[2]) | int16(raw[3])<<8
	if got0 != math.MaxInt16 {
		t.Errorf("expected 1.0 -> 32767, got %d", got0)
	}
	if got1 != math.MinInt16 {
		t.Errorf("expected -1.0 -> -32768, got %d", got1)
	}
}

func TestRoundTripTolerance(t *testing.T) {
	// Quantization loses at most one step (1/32768) per sample.
	samples := make([]float32, 0, 256)
	for i := 0; i < 256; i++ {
		samples = append(samples, float32(i-128)/128.0)
	}
	samples = append(samples, 1.0, -1.0, 0.4999, -0.00001)

	frame := Frame{Samples: samples, Rate: CaptureRate}
	chunk := EncodeWire(frame)

	decoded, err := DecodeBase64Wire(chunk.Data, CaptureRate)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded.Samples))
	}
	const step = 1.0 / 32768.0
	for i, orig := range samples {
		diff := math.Abs(float64(orig) - float64(decoded.Samples[i]))
		if diff > step+1e-9 {
			t.Errorf("sample %d: diff %.8f exceeds one quantization step", i, diff)
		}
	}
}

func TestEncodeWireMIME(t *testing.T) {
	chunk := EncodeWire(Frame{Samples: []float32{0}, Rate: 16000})
	if chunk.MIMEType != "audio/pcm;rate=16000" {
		t.Errorf("unexpected mime type %q", chunk.MIMEType)
	}
	raw, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if len(raw) != 2 {
		t.Errorf("expected 2 bytes, got %d", len(raw))
	}
}

func TestDecodeWireRoundsDown(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		channels int
		want     int // samples per channel
	}{
		{"odd byte mono", []byte{0x00, 0x40, 0x7f}, 1, 1},
		{"empty", nil, 1, 0},
		{"stereo partial frame", []byte{1, 2, 3, 4, 5, 6}, 2, 1},
		{"stereo full frames", make([]byte, 16), 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chans, err := DecodeWire(tt.raw, tt.channels)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(chans) != tt.channels {
				t.Fatalf("expected %d channels, got %d", tt.channels, len(chans))
			}
			for c, ch := range chans {
				if len(ch) != tt.want {
					t.Errorf("channel %d: expected %d samples, got %d", c, tt.want, len(ch))
				}
			}
		})
	}
}

func TestDecodeWireDeinterleaves(t *testing.T) {
	// L=16384, R=-16384 repeated twice.
	raw := []byte{0x00, 0x40, 0x00, 0xc0, 0x00, 0x40, 0x00, 0xc0}
	chans, err := DecodeWire(raw, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 2; i++ {
		if got := chans[0][i]; got != 0.5 {
			t.Errorf("left[%d]: expected 0.5, got %v", i, got)
		}
		if got := chans[1][i]; got != -0.5 {
			t.Errorf("right[%d]: expected -0.5, got %v", i, got)
		}
	}
}

func TestDecodeWireRejectsBadChannels(t *testing.T) {
	if _, err := DecodeWire([]byte{0, 0}, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestFrameDuration(t *testing.T) {
	f := Frame{Samples: make([]float32, 24000), Rate: 24000}
	if d := f.Duration(); d != 1.0 {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := (Frame{}).Duration(); d != 0 {
		t.Errorf("expected 0 for empty frame, got %v", d)
	}
}

func TestRMSEnergy(t *testing.T) {
	tests := []struct {
		name     string
		samples  []float32
		expected float64
	}{
		{"silence", []float32{0, 0, 0, 0}, 0.0},
		{"full scale", []float32{1, 1, 1, 1}, 1.0},
		{"half scale", []float32{0.5, -0.5, 0.5, -0.5}, 0.5},
		{"empty", nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RMSEnergy(tt.samples)
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("expected %.3f, got %.3f", tt.expected, got)
			}
		})
	}
}
