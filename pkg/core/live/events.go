package live

import "github.com/docuvox/docuvox/pkg/core/pcm"

// Event is the interface for all live session events. The set of event kinds
// is closed: consumers switch on the concrete type and ignore what they do
// not handle.
type Event interface {
	// EventType returns the event type string for logging and serialization.
	EventType() string
}

// OpenEvent is emitted once the transport connection is established and the
// endpoint has acknowledged the session configuration.
type OpenEvent struct{}

func (e *OpenEvent) EventType() string { return "open" }

// AudioChunkEvent carries one decoded response audio frame ready for
// playback scheduling.
type AudioChunkEvent struct {
	Frame pcm.Frame
}

func (e *AudioChunkEvent) EventType() string { return "audio.chunk" }

// InputTranscriptEvent is an incremental fragment of the user's speech
// transcript.
type InputTranscriptEvent struct {
	Delta string `json:"delta"`
}

func (e *InputTranscriptEvent) EventType() string { return "transcript.input" }

// OutputTranscriptEvent is an incremental fragment of the assistant's spoken
// response transcript.
type OutputTranscriptEvent struct {
	Delta string `json:"delta"`
}

func (e *OutputTranscriptEvent) EventType() string { return "transcript.output" }

// TurnCompleteEvent marks the end of one exchange. The turn accumulator
// finalizes the pending transcripts when it observes this.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// InterruptedEvent signals that the endpoint cut the current response short.
// In-flight playback for the truncated answer is stale and gets halted.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// TurnRecordEvent carries one finalized question/answer exchange, emitted at
// most once per turn-complete signal.
type TurnRecordEvent struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (e *TurnRecordEvent) EventType() string { return "turn.record" }

// StateChangedEvent is emitted on every lifecycle transition.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// ErrorEvent is a terminal transport or resource failure. The session tears
// down after emitting it.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }

// ClosedEvent is emitted when the transport connection has ended, whether by
// request or from the remote side.
type ClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *ClosedEvent) EventType() string { return "closed" }

// Error codes carried by ErrorEvent.
const (
	ErrCodeMicrophone = "microphone_error"
	ErrCodeAudioOut   = "audio_output_error"
	ErrCodeConnect    = "connect_error"
	ErrCodeTransport  = "transport_error"
)
