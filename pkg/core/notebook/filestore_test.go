package notebook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	nb := New("Thermodynamics", "Heat flows from hot to cold.", "en-US")
	nb.Summary = "Basics of heat transfer."
	if err := store.Create(ctx, nb); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, nb.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != nb.Title || got.Summary != nb.Summary || got.Document != nb.Document {
		t.Errorf("Get = %+v, want %+v", got, nb)
	}
}

func TestFileStoreCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	nb := New("Doc", "body", "en-US")
	if err := store.Create(ctx, nb); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, nb); err == nil {
		t.Fatal("duplicate Create succeeded")
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestFileStoreAppendTurnAndNotes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	nb := New("Doc", "body", "en-US")
	if err := store.Create(ctx, nb); err != nil {
		t.Fatalf("Create: %v", err)
	}

	turns := []Turn{
		NewTurn("What is entropy?", "A measure of disorder.", SourceVoice),
		NewTurn("Who coined it?", "Clausius.", SourceText),
	}
	for _, turn := range turns {
		if err := store.AppendTurn(ctx, nb.ID, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}
	if err := store.AddNote(ctx, nb.ID, NewNote("revisit chapter 3")); err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	got, err := store.Get(ctx, nb.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(got.Turns))
	}
	if got.Turns[0].Question != "What is entropy?" || got.Turns[0].Source != SourceVoice {
		t.Errorf("first turn = %+v", got.Turns[0])
	}
	if got.Turns[1].Source != SourceText {
		t.Errorf("second turn source = %q", got.Turns[1].Source)
	}
	if len(got.Notes) != 1 || got.Notes[0].Text != "revisit chapter 3" {
		t.Errorf("notes = %+v", got.Notes)
	}
}

func TestFileStoreUpdateSummary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	nb := New("untitled", "body", "en-US")
	if err := store.Create(ctx, nb); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.UpdateSummary(ctx, nb.ID, "Heat Transfer", "All about heat."); err != nil {
		t.Fatalf("UpdateSummary: %v", err)
	}
	got, err := store.Get(ctx, nb.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Heat Transfer" || got.Summary != "All about heat." {
		t.Errorf("after update: %+v", got)
	}
}

func TestFileStoreListStripsBodies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := New("First", "long document body", "en-US")
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AppendTurn(ctx, first.ID, NewTurn("q", "a", SourceText)); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d entries, want 1", len(list))
	}
	if list[0].Document != "" || list[0].Turns != nil {
		t.Errorf("List leaked bodies: %+v", list[0])
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	nb := New("Doc", "body", "en-US")
	if err := store.Create(ctx, nb); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Delete(ctx, nb.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, nb.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, nb.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestNotebookContext(t *testing.T) {
	nb := New("Physics", "E = mc^2 and other facts.", "en-US")
	nb.Summary = "Relativity notes."
	nb.Notes = append(nb.Notes, NewNote("ask about time dilation"))

	ctx := nb.Context()
	for _, want := range []string{"Title: Physics", "Summary: Relativity notes.", "ask about time dilation", "E = mc^2"} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}
}
