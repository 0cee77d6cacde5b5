package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docuvox/docuvox/internal/audio"
	"github.com/docuvox/docuvox/internal/config"
	"github.com/docuvox/docuvox/pkg/core/live"
	"github.com/docuvox/docuvox/pkg/core/notebook"
)

// runLive holds a voice conversation about the notebook until the user types
// /stop or the remote end closes. Completed voice turns are persisted to the
// store as they arrive.
func runLive(ctx context.Context, cfg *config.Config, store notebook.Store, log zerolog.Logger, nb *notebook.Notebook, scanner *bufio.Scanner, out, errOut io.Writer) error {
	mic, err := audio.NewMicrophone(cfg.AudioBackend, log)
	if err != nil {
		return err
	}
	speaker, err := audio.NewSpeaker(cfg.AudioBackend, log)
	if err != nil {
		return err
	}

	sessionCfg := live.DefaultSessionConfig()
	sessionCfg.Model = cfg.LiveModel
	sessionCfg.APIKey = cfg.GeminiAPIKey
	sessionCfg.Voice = cfg.Voice
	sessionCfg.Language = cfg.Language
	sessionCfg.ConnectTimeout = cfg.ConnectTimeout
	sessionCfg.DocumentContext = nb.Context()

	session := live.NewSession(sessionCfg, live.NewGeminiTransport(), mic, speaker)
	session.SetLogger(log)

	fmt.Fprintln(out, "connecting... speak once connected; type /stop to end the voice session.")
	if err := session.Start(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumeEvents(ctx, session, store, log, nb, out, errOut)
	}()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/stop" || line == "/exit" || line == "/quit" {
			break
		}
		if line != "" {
			fmt.Fprintln(errOut, "voice session running; type /stop to end it")
		}
	}
	_ = session.Stop()
	wg.Wait()
	fmt.Fprintln(out, "voice session ended")
	return nil
}

// consumeEvents drains the session event stream, echoing transcripts and
// persisting completed turns.
func consumeEvents(ctx context.Context, session *live.Session, store notebook.Store, log zerolog.Logger, nb *notebook.Notebook, out, errOut io.Writer) {
	var speaking bool
	for event := range session.Events() {
		switch e := event.(type) {
		case *live.OpenEvent:
			fmt.Fprintln(out, "connected")
		case *live.InputTranscriptEvent:
			if speaking {
				fmt.Fprintln(out)
				speaking = false
			}
			fmt.Fprint(out, e.Delta)
		case *live.OutputTranscriptEvent:
			if !speaking {
				fmt.Fprint(out, "\nassistant: ")
				speaking = true
			}
			fmt.Fprint(out, e.Delta)
		case *live.TurnCompleteEvent:
			if speaking {
				fmt.Fprintln(out)
				speaking = false
			}
		case *live.TurnRecordEvent:
			turn := notebook.NewTurn(e.Question, e.Answer, notebook.SourceVoice)
			if err := store.AppendTurn(ctx, nb.ID, turn); err != nil {
				log.Warn().Err(err).Msg("failed to persist voice turn")
			}
		case *live.InterruptedEvent:
			if speaking {
				fmt.Fprintln(out, " [interrupted]")
				speaking = false
			}
		case *live.ErrorEvent:
			fmt.Fprintf(errOut, "\n[%s] %s\n", e.Code, e.Message)
		case *live.ClosedEvent:
			log.Debug().Str("reason", e.Reason).Msg("live session closed")
		}
	}
}
