package live

import (
	"fmt"
	"strings"
	"time"
)

// State represents the lifecycle state of a session.
type State int

const (
	// StateIdle means no resources are held.
	StateIdle State = iota
	// StateStarting means resource acquisition and connection setup are in
	// flight.
	StateStarting
	// StateActive means capture, transport, and playback are all running.
	StateActive
	// StateStopping means teardown is releasing resources.
	StateStopping
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateActive:
		return "ACTIVE"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// SessionConfig holds all configuration for one live voice session.
type SessionConfig struct {
	// Model is the conversational endpoint model identifier.
	Model string

	// APIKey authenticates the transport connection.
	APIKey string

	// Voice selects the prebuilt synthetic voice for responses.
	Voice string

	// Language is the spoken language code for the conversation.
	// One of the supported closed set; see LanguageName.
	Language string

	// DocumentContext is the extracted document text the assistant answers
	// from. Included verbatim in the system instruction.
	DocumentContext string

	// ConnectTimeout bounds connection establishment and the setup
	// handshake. Zero disables the bound.
	ConnectTimeout time.Duration

	// EventBuffer is the session event channel capacity. Default: 256.
	EventBuffer int

	// SendQueue is the capture frame send queue capacity. Default: 64.
	SendQueue int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
// APIKey, Language, and DocumentContext must still be supplied by the caller.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Model:          "models/gemini-2.5-flash-native-audio-preview-09-2025",
		Voice:          "Orus",
		Language:       "en-US",
		ConnectTimeout: 15 * time.Second,
		EventBuffer:    256,
		SendQueue:      64,
	}
}

// languageNames maps the supported language codes to the human-readable
// names used inside the system instruction.
var languageNames = map[string]string{
	"en-US": "English",
	"pt-BR": "Brazilian Portuguese",
	"es-ES": "Spanish",
	"fr-FR": "French",
	"de-DE": "German",
}

// LanguageName resolves a supported language code to its display name.
func LanguageName(code string) (string, error) {
	name, ok := languageNames[code]
	if !ok {
		return "", fmt.Errorf("live: unsupported language %q", code)
	}
	return name, nil
}

// SystemInstruction builds the instruction binding the assistant's spoken
// answers to the supplied document text in the configured language.
func SystemInstruction(documentContext, language string) (string, error) {
	langName, err := LanguageName(language)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("You are a helpful study assistant in a live voice conversation. ")
	b.WriteString("Answer the user's spoken questions using only the document below. ")
	b.WriteString("If the document does not contain the answer, say so briefly. ")
	fmt.Fprintf(&b, "Respond in %s, in a natural conversational register.\n\n", langName)
	b.WriteString("--- DOCUMENT ---\n")
	b.WriteString(documentContext)
	return b.String(), nil
}
