package audio

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docuvox/docuvox/pkg/core/pcm"
)

// captureChunkBytes is the mic read size: 100ms of s16le mono at 16 kHz.
const captureChunkBytes = pcm.CaptureRate / 10 * 2

// FFmpegMicrophone captures the default input device through an ffmpeg
// subprocess emitting s16le mono on stdout.
type FFmpegMicrophone struct {
	log    zerolog.Logger
	frames chan pcm.Frame
	done   chan struct{}

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	closed bool
}

func NewFFmpegMicrophone(log zerolog.Logger) *FFmpegMicrophone {
	return &FFmpegMicrophone{
		log:    log,
		frames: make(chan pcm.Frame, 16),
		done:   make(chan struct{}),
	}
}

func (m *FFmpegMicrophone) Start() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.New("audio: ffmpeg is required for mic capture (install ffmpeg and ensure it is in PATH)")
	}
	args, err := micArgs(runtime.GOOS)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("audio: microphone already closed")
	}
	if m.cmd != nil {
		return errors.New("audio: microphone already started")
	}

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audio: open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start ffmpeg mic capture: %w", err)
	}
	m.cmd = cmd
	m.stdout = stdout

	go m.readLoop(stdout)
	return nil
}

func micArgs(goos string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":0",
			"-ac", "1", "-ar", fmt.Sprintf("%d", pcm.CaptureRate),
			"-f", "s16le", "-",
		}, nil
	case "linux":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", fmt.Sprintf("%d", pcm.CaptureRate),
			"-f", "s16le", "-",
		}, nil
	default:
		return nil, fmt.Errorf("audio: mic capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
}

func (m *FFmpegMicrophone) readLoop(stdout io.Reader) {
	defer close(m.frames)
	buf := make([]byte, captureChunkBytes)
	for {
		n, err := io.ReadFull(stdout, buf)
		if n > 0 {
			// The consumer may never attach (startup unwound before the
			// capture pump launched); Close must still release this loop.
			select {
			case m.frames <- pcm.Frame{Samples: pcm.UnmarshalPCM16(buf[:n]), Rate: pcm.CaptureRate}:
			case <-m.done:
				return
			}
		}
		if err != nil {
			m.mu.Lock()
			closed := m.closed
			m.mu.Unlock()
			if !closed && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				m.log.Warn().Err(err).Msg("mic capture read failed")
			}
			return
		}
	}
}

func (m *FFmpegMicrophone) Frames() <-chan pcm.Frame { return m.frames }

func (m *FFmpegMicrophone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	if m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
		_ = m.cmd.Wait()
	}
	return nil
}

// FFplaySpeaker renders s16le mono audio by piping it into an ffplay
// subprocess. Reset restarts the subprocess, which discards whatever the
// device had buffered.
type FFplaySpeaker struct {
	log zerolog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	closed bool
}

func NewFFplaySpeaker(log zerolog.Logger) *FFplaySpeaker {
	return &FFplaySpeaker{log: log}
}

func (p *FFplaySpeaker) Start() error {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return errors.New("audio: ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("audio: speaker already closed")
	}
	if p.cmd != nil {
		return nil
	}
	return p.startLocked()
}

func (p *FFplaySpeaker) startLocked() error {
	p.cmd = exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", pcm.PlaybackRate),
		"-ac", "1",
		"-i", "pipe:0",
	)
	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audio: open ffplay stdin: %w", err)
	}
	p.cmd.Stdout = io.Discard
	p.cmd.Stderr = io.Discard
	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("audio: start ffplay: %w", err)
	}
	p.stdin = stdin
	return nil
}

func (p *FFplaySpeaker) Play(frame pcm.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stdin == nil {
		return errors.New("audio: speaker not started")
	}
	_, err := p.stdin.Write(pcm.MarshalPCM16(frame.Samples))
	return err
}

func (p *FFplaySpeaker) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.cmd == nil {
		return nil
	}
	p.killLocked()
	return p.startLocked()
}

func (p *FFplaySpeaker) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.killLocked()
	return nil
}

func (p *FFplaySpeaker) killLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	}
	p.cmd = nil
	p.stdin = nil
}
