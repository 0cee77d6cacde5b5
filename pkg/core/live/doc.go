// Package live implements real-time duplex voice conversations for Docuvox.
//
// A live session streams microphone audio to the conversational endpoint
// while response audio, transcripts, and turn boundaries stream back, so the
// user can talk to a notebook the way they would talk to a person.
//
// # Architecture
//
// The package is built from a few cooperating components:
//
//   - Session: the lifecycle controller that owns every other piece
//   - Transport: the websocket connection to the conversational endpoint
//   - Scheduler: gapless playback scheduling for response audio
//   - TurnAccumulator: collects transcript deltas into question/answer records
//
// # Data Flow
//
//	Mic frames → encode (s16le 16 kHz) → send queue → Transport
//
//	Transport → decode (s16le 24 kHz) → Scheduler → speaker
//	          → transcript deltas → TurnAccumulator → TurnRecordEvent
//
// # State Machine
//
// A session moves through four states:
//
//	IDLE → STARTING → ACTIVE → STOPPING → IDLE
//
// Startup acquires the speaker, the microphone, and the connection in that
// order; a failure at any step releases what was already acquired. Teardown
// runs the reverse and is idempotent.
//
// # Usage
//
//	cfg := live.DefaultSessionConfig()
//	cfg.APIKey = apiKey
//	cfg.DocumentContext = notebook.Context()
//
//	session := live.NewSession(cfg, live.NewGeminiTransport(), mic, speaker)
//	if err := session.Start(ctx); err != nil {
//	    return err
//	}
//
//	for event := range session.Events() {
//	    switch e := event.(type) {
//	    case *live.InputTranscriptEvent:
//	        fmt.Print(e.Delta)
//	    case *live.TurnRecordEvent:
//	        store.AppendTurn(e.Question, e.Answer)
//	    }
//	}
package live
