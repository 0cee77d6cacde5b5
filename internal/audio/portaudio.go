package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/docuvox/docuvox/pkg/core/pcm"
)

// captureFrameSamples is the portaudio capture buffer size: 64ms at 16 kHz.
const captureFrameSamples = 1024

// playbackFrameSamples is the portaudio render buffer size: ~42ms at 24 kHz.
const playbackFrameSamples = 1024

// PortAudioMicrophone captures the default input device through portaudio.
type PortAudioMicrophone struct {
	log    zerolog.Logger
	frames chan pcm.Frame
	done   chan struct{}

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	closed  bool
	started bool
}

func NewPortAudioMicrophone(log zerolog.Logger) *PortAudioMicrophone {
	return &PortAudioMicrophone{
		log:    log,
		frames: make(chan pcm.Frame, 16),
		done:   make(chan struct{}),
	}
}

func (m *PortAudioMicrophone) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("audio: microphone already closed")
	}
	if m.started {
		return errors.New("audio: microphone already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	m.buffer = make([]int16, captureFrameSamples)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(pcm.CaptureRate), len(m.buffer), m.buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("audio: open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("audio: start capture stream: %w", err)
	}
	m.stream = stream
	m.started = true

	go m.readLoop()
	return nil
}

func (m *PortAudioMicrophone) readLoop() {
	defer close(m.frames)
	for {
		m.mu.Lock()
		stream := m.stream
		closed := m.closed
		m.mu.Unlock()
		if closed || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			m.mu.Lock()
			closed = m.closed
			m.mu.Unlock()
			if !closed {
				m.log.Warn().Err(err).Msg("mic capture read failed")
			}
			return
		}

		samples := make([]float32, len(m.buffer))
		for i, v := range m.buffer {
			samples[i] = float32(v) / 32768
		}
		// The consumer may never attach (startup unwound before the
		// capture pump launched); Close must still release this loop.
		select {
		case m.frames <- pcm.Frame{Samples: samples, Rate: pcm.CaptureRate}:
		case <-m.done:
			return
		}
	}
}

func (m *PortAudioMicrophone) Frames() <-chan pcm.Frame { return m.frames }

func (m *PortAudioMicrophone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	if m.stream != nil {
		_ = m.stream.Stop()
		_ = m.stream.Close()
		m.stream = nil
		_ = portaudio.Terminate()
	}
	return nil
}

// PortAudioSpeaker renders audio to the default output device through
// portaudio. Play blocks until the frame has been written to the device, so
// it should be driven by a scheduler rather than called from a hot loop.
type PortAudioSpeaker struct {
	log zerolog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	closed  bool
	started bool
}

func NewPortAudioSpeaker(log zerolog.Logger) *PortAudioSpeaker {
	return &PortAudioSpeaker{log: log}
}

func (p *PortAudioSpeaker) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("audio: speaker already closed")
	}
	if p.started {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	p.buffer = make([]int16, playbackFrameSamples)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(pcm.PlaybackRate), len(p.buffer), p.buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("audio: start output stream: %w", err)
	}
	p.stream = stream
	p.started = true
	return nil
}

func (p *PortAudioSpeaker) Play(frame pcm.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return errors.New("audio: speaker not started")
	}

	samples := frame.Samples
	for len(samples) > 0 {
		count := len(samples)
		if count > len(p.buffer) {
			count = len(p.buffer)
		}
		for i := 0; i < count; i++ {
			v := math.Round(float64(samples[i]) * 32768)
			if v > math.MaxInt16 {
				v = math.MaxInt16
			}
			if v < math.MinInt16 {
				v = math.MinInt16
			}
			p.buffer[i] = int16(v)
		}
		for i := count; i < len(p.buffer); i++ {
			p.buffer[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("audio: write output stream: %w", err)
		}
		samples = samples[count:]
	}
	return nil
}

func (p *PortAudioSpeaker) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}
	// portaudio drains what Write already handed over; stopping and
	// restarting the stream is the closest thing to a flush.
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stop output stream: %w", err)
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("audio: restart output stream: %w", err)
	}
	return nil
}

func (p *PortAudioSpeaker) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.stream != nil {
		_ = p.stream.Stop()
		_ = p.stream.Close()
		p.stream = nil
		_ = portaudio.Terminate()
	}
	return nil
}
