package live

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/docuvox/docuvox/pkg/core/live/protocol"
	"github.com/docuvox/docuvox/pkg/core/pcm"
)

// DefaultEndpoint is the bidirectional streaming endpoint of the
// conversational service.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Transport owns the duplex streaming connection to the conversational
// endpoint: it sends encoded capture frames upstream and surfaces decoded
// response audio, transcripts, and lifecycle signals as session events.
type Transport interface {
	// Start establishes the connection and performs the setup handshake.
	// It fails if a connection is already open for this instance.
	Start(ctx context.Context, cfg SessionConfig) error

	// SendFrame transmits one encoded capture frame. Asynchronous: no
	// acknowledgment is awaited. Frame order is preserved.
	SendFrame(chunk pcm.WireChunk) error

	// Events returns the inbound event stream. The channel is closed after
	// the terminal ClosedEvent.
	Events() <-chan Event

	// Stop closes the connection. Idempotent; never an error when the
	// transport was not started.
	Stop() error
}

// ErrAlreadyStarted is returned by Start when a connection is already open.
var ErrAlreadyStarted = errors.New("live: transport already started")

// ErrNotConnected is returned by SendFrame before a successful Start.
var ErrNotConnected = errors.New("live: transport not connected")

// GeminiTransport is the websocket implementation of Transport.
type GeminiTransport struct {
	endpoint string
	dialer   *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
	stopped bool
	cancel  context.CancelFunc

	writeMu sync.Mutex

	events     chan Event
	eventsOnce sync.Once
}

// NewGeminiTransport creates a transport against the default endpoint.
func NewGeminiTransport() *GeminiTransport {
	return NewGeminiTransportEndpoint(DefaultEndpoint)
}

// NewGeminiTransportEndpoint creates a transport against a specific endpoint
// URL. Used by tests to point at an in-process server.
func NewGeminiTransportEndpoint(endpoint string) *GeminiTransport {
	return &GeminiTransport{
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
		events:   make(chan Event, 256),
	}
}

// Events returns the inbound event stream.
func (t *GeminiTransport) Events() <-chan Event {
	return t.events
}

// Start dials the endpoint, sends the setup frame, and waits for the setup
// acknowledgment before spawning the read loop. Single-flight: a second
// Start on the same instance fails without disturbing the open connection.
func (t *GeminiTransport) Start(ctx context.Context, cfg SessionConfig) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	if t.stopped {
		t.mu.Unlock()
		return fmt.Errorf("live: transport already stopped")
	}
	t.started = true
	var dialCtx context.Context
	var cancel context.CancelFunc
	if cfg.ConnectTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
	} else {
		dialCtx, cancel = context.WithCancel(ctx)
	}
	t.cancel = cancel
	t.mu.Unlock()

	instruction, err := SystemInstruction(cfg.DocumentContext, cfg.Language)
	if err != nil {
		cancel()
		return err
	}

	wsURL, err := t.buildURL(cfg.APIKey)
	if err != nil {
		cancel()
		return err
	}

	conn, _, err := t.dialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("live: dial endpoint: %w", err)
	}

	// Stop may have raced the dial; the resolved connection must not leak.
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		conn.Close()
		return fmt.Errorf("live: transport stopped during connect")
	}
	t.conn = conn
	t.mu.Unlock()

	setup := protocol.ClientMessage{
		Setup: &protocol.Setup{
			Model: cfg.Model,
			GenerationConfig: &protocol.GenerationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &protocol.SpeechConfig{
					VoiceConfig: &protocol.VoiceConfig{
						PrebuiltVoiceConfig: &protocol.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
					},
				},
			},
			SystemInstruction:        &protocol.Content{Parts: []protocol.Part{{Text: instruction}}},
			InputAudioTranscription:  &protocol.TranscriptionConfig{},
			OutputAudioTranscription: &protocol.TranscriptionConfig{},
		},
	}
	if err := t.writeJSON(setup); err != nil {
		t.closeConn()
		return fmt.Errorf("live: send setup: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(cfg.ConnectTimeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.closeConn()
		return fmt.Errorf("live: read setup ack: %w", err)
	}
	msg, err := protocol.ParseServerMessage(data)
	if err != nil {
		t.closeConn()
		return fmt.Errorf("live: invalid setup ack: %w", err)
	}
	if msg.SetupComplete == nil {
		t.closeConn()
		return fmt.Errorf("live: endpoint rejected setup")
	}
	_ = conn.SetReadDeadline(time.Time{})

	t.emit(&OpenEvent{})
	go t.readLoop(conn)
	return nil
}

// SendFrame transmits one encoded capture frame as a realtime input message.
func (t *GeminiTransport) SendFrame(chunk pcm.WireChunk) error {
	t.mu.Lock()
	conn := t.conn
	stopped := t.stopped
	t.mu.Unlock()

	if conn == nil || stopped {
		return ErrNotConnected
	}
	return t.writeJSON(protocol.ClientMessage{
		RealtimeInput: &protocol.RealtimeInput{
			MediaChunks: []protocol.Blob{{MIMEType: chunk.MIMEType, Data: chunk.Data}},
		},
	})
}

// Stop closes the connection. Safe to call at any point after Start begins,
// including before connection establishment completes, and safe to call
// repeatedly or without Start.
func (t *GeminiTransport) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	cancel := t.cancel
	conn := t.conn
	started := t.started
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		t.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		t.writeMu.Unlock()
		conn.Close()
	}
	if !started || conn == nil {
		// Never connected: the read loop will not run, so the terminal
		// event is emitted here.
		t.emit(&ClosedEvent{Reason: "stopped"})
		t.closeEvents()
	}
	return nil
}

// readLoop translates inbound server frames into session events until the
// connection ends.
func (t *GeminiTransport) readLoop(conn *websocket.Conn) {
	defer t.closeEvents()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			stopped := t.stopped
			t.mu.Unlock()
			if stopped {
				t.emit(&ClosedEvent{Reason: "stopped"})
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.emit(&ClosedEvent{Reason: "remote close"})
				return
			}
			t.emit(&ErrorEvent{Code: ErrCodeTransport, Message: err.Error()})
			t.emit(&ClosedEvent{Reason: "transport error"})
			return
		}

		msg, err := protocol.ParseServerMessage(data)
		if err != nil {
			// A single corrupt frame does not end an otherwise healthy
			// session.
			continue
		}
		t.dispatch(msg)
	}
}

// dispatch turns one server message into zero or more events.
func (t *GeminiTransport) dispatch(msg *protocol.ServerMessage) {
	sc := msg.ServerContent
	if sc == nil {
		return
	}
	if sc.Interrupted {
		t.emit(&InterruptedEvent{})
	}
	for _, blob := range sc.InlineAudio() {
		frame, err := pcm.DecodeBase64Wire(blob.Data, pcm.PlaybackRate)
		if err != nil || len(frame.Samples) == 0 {
			// Malformed chunk: drop it and keep the session alive.
			continue
		}
		t.emit(&AudioChunkEvent{Frame: frame})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		t.emit(&InputTranscriptEvent{Delta: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		t.emit(&OutputTranscriptEvent{Delta: sc.OutputTranscription.Text})
	}
	if sc.TurnComplete {
		t.emit(&TurnCompleteEvent{})
	}
}

func (t *GeminiTransport) writeJSON(v any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.WriteJSON(v)
}

func (t *GeminiTransport) closeConn() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (t *GeminiTransport) emit(event Event) {
	select {
	case t.events <- event:
	default:
		// Consumer stalled; drop rather than block the read loop.
	}
}

func (t *GeminiTransport) closeEvents() {
	t.eventsOnce.Do(func() { close(t.events) })
}

func (t *GeminiTransport) buildURL(apiKey string) (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("live: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
