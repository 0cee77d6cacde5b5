package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMicArgs(t *testing.T) {
	tests := []struct {
		goos    string
		wantErr bool
		want    []string
	}{
		{goos: "linux", want: []string{"-f", "pulse", "-ar", "16000", "s16le"}},
		{goos: "darwin", want: []string{"-f", "avfoundation", "-ar", "16000", "s16le"}},
		{goos: "windows", wantErr: true},
		{goos: "plan9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			args, err := micArgs(tt.goos)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("micArgs(%q) succeeded, want error", tt.goos)
				}
				return
			}
			if err != nil {
				t.Fatalf("micArgs(%q): %v", tt.goos, err)
			}
			joined := strings.Join(args, " ")
			for _, want := range tt.want {
				if !strings.Contains(joined, want) {
					t.Errorf("args %q missing %q", joined, want)
				}
			}
		})
	}
}

// silenceReader produces s16le silence forever, like a capture process whose
// output nobody is draining.
type silenceReader struct{}

func (silenceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestMicrophoneCloseReleasesReadLoop(t *testing.T) {
	mic := NewFFmpegMicrophone(zerolog.Nop())

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		mic.readLoop(silenceReader{})
	}()

	// Let the loop fill the frame buffer and block on the next send.
	deadline := time.After(2 * time.Second)
	for len(mic.frames) < cap(mic.frames) {
		select {
		case <-deadline:
			t.Fatal("read loop never filled the frame buffer")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := mic.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop still running after Close")
	}

	// The frames channel must drain and close so any late consumer exits.
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-mic.Frames():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("frames channel never closed after Close")
		}
	}
}

func TestNewMicrophoneBackendSelection(t *testing.T) {
	log := zerolog.Nop()
	if _, err := NewMicrophone("", log); err != nil {
		t.Errorf("default backend: %v", err)
	}
	if _, err := NewMicrophone(BackendFFmpeg, log); err != nil {
		t.Errorf("ffmpeg backend: %v", err)
	}
	if _, err := NewMicrophone(BackendPortAudio, log); err != nil {
		t.Errorf("portaudio backend: %v", err)
	}
	if _, err := NewMicrophone("jack", log); err == nil {
		t.Error("unknown backend accepted")
	}
	if _, err := NewSpeaker("jack", log); err == nil {
		t.Error("unknown speaker backend accepted")
	}
}
