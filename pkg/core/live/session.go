package live

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docuvox/docuvox/pkg/core/pcm"
)

// ErrSessionClosed is returned by Start on a session that has already been
// stopped. Sessions are single-use: one conversation per instance.
var ErrSessionClosed = errors.New("live: session closed")

// Source captures microphone audio. Start begins capture, Frames delivers
// captured frames until the source is closed or fails, and Close releases
// the device. Close must be safe to call more than once.
type Source interface {
	Start() error
	Frames() <-chan pcm.Frame
	Close() error
}

// OutputDevice renders playback audio and can be released. It extends Sink
// with acquisition and release so the session can hold the device for the
// whole conversation.
type OutputDevice interface {
	Sink
	Start() error
	Close() error
}

// Session drives one live voice conversation: it owns the capture source,
// the playback path, the transport, and the turn accumulator, and exposes
// a single ordered event stream.
//
// Lifecycle: IDLE -> STARTING -> ACTIVE -> STOPPING -> IDLE. A failure at
// any point during startup releases whatever was already acquired and lands
// back in IDLE.
type Session struct {
	cfg       SessionConfig
	transport Transport
	source    Source
	output    OutputDevice
	log       zerolog.Logger

	sched *Scheduler
	turns *TurnAccumulator

	mu      sync.Mutex
	state   State
	closed  bool
	stopReq bool

	events   chan Event
	sendQ    chan pcm.WireChunk
	evMu     sync.RWMutex
	evClosed bool
}

// NewSession creates a session over the given transport and audio devices.
// Zero config fields are filled from DefaultSessionConfig.
func NewSession(cfg SessionConfig, transport Transport, source Source, output OutputDevice) *Session {
	def := DefaultSessionConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = def.SendQueue
	}

	s := &Session{
		cfg:       cfg,
		transport: transport,
		source:    source,
		output:    output,
		log:       zerolog.Nop(),
		turns:     &TurnAccumulator{},
		state:     StateIdle,
		events:    make(chan Event, cfg.EventBuffer),
		sendQ:     make(chan pcm.WireChunk, cfg.SendQueue),
	}
	s.sched = NewScheduler(output, nil)
	s.sched.SetErrorFunc(func(err error) {
		s.emit(&ErrorEvent{Code: ErrCodeAudioOut, Message: err.Error()})
	})
	return s
}

// SetLogger replaces the session logger. Call before Start.
func (s *Session) SetLogger(log zerolog.Logger) { s.log = log }

// Events returns the session event stream. The channel is closed after the
// terminal ClosedEvent; consumers can range over it.
func (s *Session) Events() <-chan Event { return s.events }

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires the audio devices and opens the transport. It is rejected
// with ErrAlreadyStarted while a conversation is in progress and with
// ErrSessionClosed once the session has been stopped.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.mu.Unlock()
	s.emit(&StateChangedEvent{From: StateIdle, To: StateStarting})

	if err := s.output.Start(); err != nil {
		s.failStart(false, false, ErrCodeAudioOut, err)
		return fmt.Errorf("live: acquire audio output: %w", err)
	}
	if s.startAborted() {
		s.failStart(true, false, "", nil)
		return ErrSessionClosed
	}

	if err := s.source.Start(); err != nil {
		s.failStart(true, false, ErrCodeMicrophone, err)
		return fmt.Errorf("live: acquire microphone: %w", err)
	}
	if s.startAborted() {
		s.failStart(true, true, "", nil)
		return ErrSessionClosed
	}

	if err := s.transport.Start(ctx, s.cfg); err != nil {
		if s.startAborted() {
			// Stop cancelled the dial; this is a clean stop, not a failure.
			s.failStart(true, true, "", nil)
			return ErrSessionClosed
		}
		s.failStart(true, true, ErrCodeConnect, err)
		return fmt.Errorf("live: connect: %w", err)
	}
	if s.startAborted() {
		_ = s.transport.Stop()
		s.failStart(true, true, "", nil)
		return ErrSessionClosed
	}

	s.mu.Lock()
	s.state = StateActive
	s.mu.Unlock()
	s.emit(&StateChangedEvent{From: StateStarting, To: StateActive})
	s.log.Info().Str("model", s.cfg.Model).Str("voice", s.cfg.Voice).Msg("live session active")

	go s.pumpCapture()
	go s.pumpSend()
	go s.eventLoop()
	return nil
}

// Stop ends the conversation and releases every resource. Idempotent: any
// number of calls, at any point in the lifecycle, return nil.
func (s *Session) Stop() error {
	s.mu.Lock()
	switch {
	case s.closed, s.state == StateStopping:
		s.mu.Unlock()
		return nil
	case s.state == StateStarting:
		// Startup in progress on another goroutine; flag it to unwind.
		s.stopReq = true
		s.mu.Unlock()
		_ = s.transport.Stop()
		return nil
	case s.state == StateIdle:
		s.closed = true
		s.mu.Unlock()
		s.emit(&ClosedEvent{Reason: "stopped"})
		s.closeEvents()
		return nil
	}
	s.state = StateStopping
	s.mu.Unlock()
	s.emit(&StateChangedEvent{From: StateActive, To: StateStopping})

	// Teardown order: transport first so no new response audio arrives,
	// then playback, then the capture device, then the output device.
	// Drop rather than HaltAll: the output device is closed two lines
	// down, so flushing it here would only restart it.
	if err := s.transport.Stop(); err != nil {
		s.log.Warn().Err(err).Msg("transport stop")
	}
	s.sched.Drop()
	if err := s.source.Close(); err != nil {
		s.log.Warn().Err(err).Msg("capture close")
	}
	if err := s.output.Close(); err != nil {
		s.log.Warn().Err(err).Msg("audio output close")
	}

	s.mu.Lock()
	s.state = StateIdle
	s.closed = true
	s.mu.Unlock()
	s.emit(&StateChangedEvent{From: StateStopping, To: StateIdle})
	return nil
}

func (s *Session) startAborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReq
}

// failStart unwinds a partial startup. Resources are released in reverse
// order of acquisition; each release is best effort.
func (s *Session) failStart(output, source bool, code string, cause error) {
	if cause != nil {
		s.emit(&ErrorEvent{Code: code, Message: cause.Error()})
		s.log.Error().Err(cause).Str("code", code).Msg("live session start failed")
	}
	s.mu.Lock()
	s.state = StateStopping
	s.mu.Unlock()
	s.emit(&StateChangedEvent{From: StateStarting, To: StateStopping})

	if source {
		if err := s.source.Close(); err != nil {
			s.log.Warn().Err(err).Msg("capture close")
		}
	}
	if output {
		if err := s.output.Close(); err != nil {
			s.log.Warn().Err(err).Msg("audio output close")
		}
	}

	s.mu.Lock()
	s.state = StateIdle
	s.closed = true
	s.mu.Unlock()
	s.emit(&StateChangedEvent{From: StateStopping, To: StateIdle})
	if cause != nil {
		s.emit(&ClosedEvent{Reason: "start failed"})
	} else {
		s.emit(&ClosedEvent{Reason: "stopped"})
	}
	s.closeEvents()
}

// pumpCapture moves captured frames into the send queue. Encoding happens
// here so a slow network write never blocks the capture device.
func (s *Session) pumpCapture() {
	for frame := range s.source.Frames() {
		chunk := pcm.EncodeWire(frame)
		select {
		case s.sendQ <- chunk:
		default:
			// Uplink stalled; shed the frame rather than stall capture.
		}
	}
	close(s.sendQ)

	s.mu.Lock()
	active := s.state == StateActive
	s.mu.Unlock()
	if active {
		s.emit(&ErrorEvent{Code: ErrCodeMicrophone, Message: "capture stream ended"})
		_ = s.Stop()
	}
}

// pumpSend drains the send queue into the transport in order.
func (s *Session) pumpSend() {
	for chunk := range s.sendQ {
		if err := s.transport.SendFrame(chunk); err != nil {
			if errors.Is(err, ErrNotConnected) {
				return
			}
			s.log.Debug().Err(err).Msg("send frame")
		}
	}
}

// eventLoop consumes transport events, feeds the playback scheduler and the
// turn accumulator, and forwards everything downstream.
func (s *Session) eventLoop() {
	defer s.closeEvents()

	for ev := range s.transport.Events() {
		switch e := ev.(type) {
		case *AudioChunkEvent:
			s.sched.Schedule(e.Frame)
			s.emit(ev)
		case *InputTranscriptEvent:
			s.turns.AddInput(e.Delta)
			s.emit(ev)
		case *OutputTranscriptEvent:
			s.turns.AddOutput(e.Delta)
			s.emit(ev)
		case *TurnCompleteEvent:
			s.emit(ev)
			if rec, ok := s.turns.Complete(); ok {
				s.emit(&TurnRecordEvent{Question: rec.Question, Answer: rec.Answer})
			}
		case *InterruptedEvent:
			// The response in flight is stale; silence it and accept the
			// next one immediately.
			s.sched.HaltAll()
			s.sched.Resume()
			s.emit(ev)
		case *ClosedEvent:
			s.emit(ev)
		default:
			s.emit(ev)
		}
	}
	_ = s.Stop()
}

func (s *Session) emit(event Event) {
	s.evMu.RLock()
	defer s.evMu.RUnlock()
	if s.evClosed {
		return
	}
	select {
	case s.events <- event:
	default:
		s.log.Debug().Str("type", event.EventType()).Msg("event dropped, consumer stalled")
	}
}

func (s *Session) closeEvents() {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	if s.evClosed {
		return
	}
	s.evClosed = true
	close(s.events)
}
