// Package summarize generates notebook titles, summaries, and text-mode
// answers using the Gemini API.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Exchange is one past question/answer pair included as conversation history.
type Exchange struct {
	Question string
	Answer   string
}

// Summarizer wraps a generative model client for the non-realtime paths:
// document ingestion and typed Q&A.
type Summarizer struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

func New(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: create client: %w", err)
	}
	return &Summarizer{client: client, model: model, log: log}, nil
}

// maxDocumentRunes caps how much of the document is sent for summarization.
const maxDocumentRunes = 48000

// Summarize produces a short title and a one-paragraph summary for a
// document.
func (s *Summarizer) Summarize(ctx context.Context, document string) (title, summary string, err error) {
	if runes := []rune(document); len(runes) > maxDocumentRunes {
		document = string(runes[:maxDocumentRunes])
	}
	prompt := fmt.Sprintf(`Read the document below and produce a short title and a one-paragraph summary.
Respond in exactly this format, nothing else:

TITLE: <at most eight words>
SUMMARY: <one paragraph>

Document:
%s`, document)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", "", fmt.Errorf("summarize: generate summary: %w", err)
	}
	title, summary, err = parseSummary(resp.Text())
	if err != nil {
		return "", "", err
	}
	s.log.Info().Str("title", title).Int("summary_len", len(summary)).Msg("document summarized")
	return title, summary, nil
}

// Answer answers a typed question grounded in the notebook context and the
// recent conversation history.
func (s *Summarizer) Answer(ctx context.Context, docContext string, history []Exchange, question string) (string, error) {
	var b strings.Builder
	b.WriteString("You are a helpful study assistant. Answer the question using the notebook below. ")
	b.WriteString("If the notebook does not contain the answer, say so.\n\n")
	b.WriteString("Notebook:\n")
	b.WriteString(docContext)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, ex := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s\n", question)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(b.String()), nil)
	if err != nil {
		return "", fmt.Errorf("summarize: generate answer: %w", err)
	}
	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("summarize: empty answer")
	}
	return answer, nil
}

// parseSummary extracts the title and summary from the model's response.
// The model occasionally wraps the output in extra whitespace or markdown
// emphasis, so parsing is forgiving about everything except the two labels.
func parseSummary(text string) (title, summary string, err error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
		switch {
		case strings.HasPrefix(line, "TITLE:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
		case strings.HasPrefix(line, "SUMMARY:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		default:
			if summary != "" && line != "" {
				summary += " " + line
			}
		}
	}
	if title == "" || summary == "" {
		return "", "", fmt.Errorf("summarize: malformed summary response: %q", text)
	}
	return title, summary, nil
}
