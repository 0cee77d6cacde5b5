// Command docuvox is a "chat with your document" assistant: load a document
// into a notebook, ask questions by typing, or hold a live voice
// conversation about it.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/docuvox/docuvox/internal/config"
	"github.com/docuvox/docuvox/pkg/core/notebook"
	"github.com/docuvox/docuvox/pkg/core/summarize"
)

const usage = `Usage:
  docuvox new <document file>   create a notebook from a document and chat
  docuvox open <notebook id>    resume a notebook
  docuvox list                  list notebooks
  docuvox delete <notebook id>  delete a notebook

Chat commands:
  /live          start a voice conversation
  /pin <text>    pin a note to the notebook
  /notes         show pinned notes
  /history       show past questions and answers
  /exit, /quit   leave
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "docuvox: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out, errOut io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel, errOut)
	ctx := context.Background()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	switch args[0] {
	case "list":
		return listNotebooks(ctx, store, out)
	case "new":
		if len(args) != 2 {
			return errors.New("usage: docuvox new <document file>")
		}
		return newNotebook(ctx, cfg, store, log, args[1], in, out, errOut)
	case "open":
		if len(args) != 2 {
			return errors.New("usage: docuvox open <notebook id>")
		}
		nb, err := store.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return chat(ctx, cfg, store, log, nb, in, out, errOut)
	case "delete":
		if len(args) != 2 {
			return errors.New("usage: docuvox delete <notebook id>")
		}
		if err := store.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "notebook %s deleted\n", args[1])
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (notebook.Store, error) {
	if cfg.Store == "postgres" {
		return notebook.NewPGStore(ctx, cfg.DatabaseURL, log)
	}
	return notebook.NewFileStore(cfg.DataDir, log)
}

func listNotebooks(ctx context.Context, store notebook.Store, out io.Writer) error {
	notebooks, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(notebooks) == 0 {
		fmt.Fprintln(out, "no notebooks yet; create one with: docuvox new <document file>")
		return nil
	}
	for _, nb := range notebooks {
		fmt.Fprintf(out, "%s  %s  (%s)\n", nb.ID, nb.Title, nb.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func newNotebook(ctx context.Context, cfg *config.Config, store notebook.Store, log zerolog.Logger, path string, in io.Reader, out, errOut io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return errors.New("document is empty")
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	nb := notebook.New(title, string(data), cfg.Language)

	sum, err := summarize.New(ctx, cfg.GeminiAPIKey, cfg.Model, log)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "summarizing document...")
	genTitle, genSummary, err := sum.Summarize(ctx, nb.Document)
	if err != nil {
		// The notebook is still usable without a summary.
		log.Warn().Err(err).Msg("summarization failed, keeping file name as title")
	} else {
		nb.Title = genTitle
		nb.Summary = genSummary
	}

	if err := store.Create(ctx, nb); err != nil {
		return err
	}
	fmt.Fprintf(out, "notebook %s created: %s\n", nb.ID, nb.Title)
	if nb.Summary != "" {
		fmt.Fprintf(out, "%s\n", nb.Summary)
	}
	return chat(ctx, cfg, store, log, nb, in, out, errOut)
}

func chat(ctx context.Context, cfg *config.Config, store notebook.Store, log zerolog.Logger, nb *notebook.Notebook, in io.Reader, out, errOut io.Writer) error {
	sum, err := summarize.New(ctx, cfg.GeminiAPIKey, cfg.Model, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "chatting with %q. Type a question, /live for voice, /exit to leave.\n", nb.Title)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/exit" || line == "/quit":
			return nil
		case line == "/help":
			fmt.Fprint(out, usage)
		case line == "/live":
			if err := runLive(ctx, cfg, store, log, nb, scanner, out, errOut); err != nil {
				fmt.Fprintf(errOut, "live session error: %v\n", err)
			}
			// Reload so voice turns from the session show in /history.
			if fresh, err := store.Get(ctx, nb.ID); err == nil {
				nb = fresh
			}
		case line == "/notes":
			if len(nb.Notes) == 0 {
				fmt.Fprintln(out, "no pinned notes")
				continue
			}
			for _, note := range nb.Notes {
				fmt.Fprintf(out, "- %s\n", note.Text)
			}
		case line == "/history":
			if len(nb.Turns) == 0 {
				fmt.Fprintln(out, "no conversation yet")
				continue
			}
			for _, turn := range nb.Turns {
				fmt.Fprintf(out, "[%s] Q: %s\n         A: %s\n", turn.Source, turn.Question, turn.Answer)
			}
		case strings.HasPrefix(line, "/pin "):
			text := strings.TrimSpace(strings.TrimPrefix(line, "/pin "))
			if text == "" {
				fmt.Fprintln(errOut, "usage: /pin <text>")
				continue
			}
			note := notebook.NewNote(text)
			if err := store.AddNote(ctx, nb.ID, note); err != nil {
				fmt.Fprintf(errOut, "pin error: %v\n", err)
				continue
			}
			nb.Notes = append(nb.Notes, note)
			fmt.Fprintln(out, "pinned")
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(errOut, "unknown command %s (try /help)\n", line)
		default:
			answer, err := sum.Answer(ctx, nb.Context(), recentExchanges(nb, 6), line)
			if err != nil {
				fmt.Fprintf(errOut, "answer error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "%s\n", answer)
			turn := notebook.NewTurn(line, answer, notebook.SourceText)
			if err := store.AppendTurn(ctx, nb.ID, turn); err != nil {
				log.Warn().Err(err).Msg("failed to persist turn")
			}
			nb.Turns = append(nb.Turns, turn)
		}
	}
}

// recentExchanges returns the last n turns as summarizer history.
func recentExchanges(nb *notebook.Notebook, n int) []summarize.Exchange {
	turns := nb.Turns
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	history := make([]summarize.Exchange, 0, len(turns))
	for _, turn := range turns {
		history = append(history, summarize.Exchange{Question: turn.Question, Answer: turn.Answer})
	}
	return history
}
