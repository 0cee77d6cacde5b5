// Package protocol defines the JSON frames exchanged with the live
// conversational endpoint over a single duplex websocket.
//
// The client opens the stream with a Setup frame, then sends RealtimeInput
// frames carrying base64 PCM microphone audio. The server acknowledges setup
// once, then streams ServerMessage frames carrying inline response audio,
// incremental transcripts for both directions, and turn boundary flags.
package protocol

import "encoding/json"

// ClientMessage is the envelope for all client-to-server frames.
// Exactly one field is set per frame.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
}

// Setup is the first frame on a new connection. It fixes the model, the
// response modality, the synthetic voice, and the system instruction binding
// the assistant to the supplied document, and enables transcription reporting
// for both directions.
type Setup struct {
	Model                    string               `json:"model"`
	GenerationConfig         *GenerationConfig    `json:"generationConfig,omitempty"`
	SystemInstruction        *Content             `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *TranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *TranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// GenerationConfig narrows the response behavior for the session.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// SpeechConfig selects the synthetic voice identity.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// VoiceConfig wraps the prebuilt voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig names one of the endpoint's built-in voices.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

// TranscriptionConfig enables transcript reporting for one direction.
// The empty object is the enabled form.
type TranscriptionConfig struct{}

// Content is a sequence of parts attributed to a role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is one unit of content: text or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob carries base64-encoded binary data with a MIME descriptor.
// For audio the descriptor is "audio/pcm;rate=<hz>".
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// RealtimeInput streams captured audio upstream. Chunks are applied in
// arrival order; the transport must not reorder them.
type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks,omitempty"`
}

// ServerMessage is the envelope for all server-to-client frames.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
}

// SetupComplete acknowledges the Setup frame. Audio may be sent after it.
type SetupComplete struct{}

// ServerContent carries one increment of the model's streamed response:
// zero or more inline audio parts, optional transcript fragments for either
// direction, and the turn boundary flags.
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

// Transcription is an incremental transcript fragment.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// ParseServerMessage decodes one inbound frame.
func ParseServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// InlineAudio extracts the base64 audio payloads from a server content
// increment, in part order. Parts without inline data are skipped.
func (c *ServerContent) InlineAudio() []Blob {
	if c == nil || c.ModelTurn == nil {
		return nil
	}
	var blobs []Blob
	for _, p := range c.ModelTurn.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			blobs = append(blobs, *p.InlineData)
		}
	}
	return blobs
}
