// Package notebook defines the document-grounded conversation model: a
// notebook wraps one source document together with its summary, the
// question/answer history, and any pinned notes.
package notebook

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Turn sources.
const (
	SourceText  = "text"
	SourceVoice = "voice"
)

// Notebook is one document and everything the user has built on top of it.
type Notebook struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Language  string    `json:"language"`
	Document  string    `json:"document"`
	CreatedAt time.Time `json:"created_at"`

	Turns []Turn `json:"turns,omitempty"`
	Notes []Note `json:"notes,omitempty"`
}

// Turn is one completed question/answer exchange.
type Turn struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a pinned remark the user wants kept with the notebook.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a notebook around a document. Title and summary are usually
// filled in afterwards by the summarizer.
func New(title, document, language string) *Notebook {
	return &Notebook{
		ID:        uuid.NewString(),
		Title:     title,
		Language:  language,
		Document:  document,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTurn creates a turn record with a fresh ID and timestamp.
func NewTurn(question, answer, source string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// NewNote creates a pinned note with a fresh ID and timestamp.
func NewNote(text string) Note {
	return Note{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// maxContextDocumentRunes caps how much of the raw document goes into the
// conversation context.
const maxContextDocumentRunes = 24000

// Context renders the notebook into the grounding text handed to the model
// at the start of a conversation.
func (n *Notebook) Context() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", n.Title)
	if n.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", n.Summary)
	}
	if len(n.Notes) > 0 {
		b.WriteString("Pinned notes:\n")
		for _, note := range n.Notes {
			fmt.Fprintf(&b, "- %s\n", note.Text)
		}
	}
	doc := n.Document
	if runes := []rune(doc); len(runes) > maxContextDocumentRunes {
		doc = string(runes[:maxContextDocumentRunes])
	}
	b.WriteString("Document:\n")
	b.WriteString(doc)
	return b.String()
}
