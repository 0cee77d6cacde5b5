package notebook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore keeps each notebook as one JSON document under a base directory.
// Suitable for single-user local use; writes go through a temp file rename so
// a crash never leaves a half-written notebook behind.
type FileStore struct {
	baseDir string
	log     zerolog.Logger
	mu      sync.Mutex
}

func NewFileStore(baseDir string, log zerolog.Logger) (*FileStore, error) {
	dir := filepath.Join(baseDir, "notebooks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("notebook: create store directory: %w", err)
	}
	return &FileStore{baseDir: dir, log: log}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Create(ctx context.Context, nb *Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path(nb.ID)); err == nil {
		return fmt.Errorf("notebook: %s already exists", nb.ID)
	}
	if err := s.writeLocked(nb); err != nil {
		return err
	}
	s.log.Info().Str("notebook_id", nb.ID).Str("title", nb.Title).Msg("notebook created")
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(id)
}

func (s *FileStore) List(ctx context.Context) ([]*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("notebook: read store directory: %w", err)
	}
	var notebooks []*Notebook
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		nb, err := s.readLocked(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			s.log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable notebook")
			continue
		}
		nb.Turns = nil
		nb.Notes = nil
		nb.Document = ""
		notebooks = append(notebooks, nb)
	}
	sort.Slice(notebooks, func(i, j int) bool {
		return notebooks[i].CreatedAt.After(notebooks[j].CreatedAt)
	})
	return notebooks, nil
}

func (s *FileStore) UpdateSummary(ctx context.Context, id, title, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.readLocked(id)
	if err != nil {
		return err
	}
	nb.Title = title
	nb.Summary = summary
	return s.writeLocked(nb)
}

func (s *FileStore) AppendTurn(ctx context.Context, notebookID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.readLocked(notebookID)
	if err != nil {
		return err
	}
	nb.Turns = append(nb.Turns, turn)
	if err := s.writeLocked(nb); err != nil {
		return err
	}
	s.log.Debug().Str("notebook_id", notebookID).Str("source", turn.Source).Msg("turn appended")
	return nil
}

func (s *FileStore) AddNote(ctx context.Context, notebookID string, note Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.readLocked(notebookID)
	if err != nil {
		return err
	}
	nb.Notes = append(nb.Notes, note)
	return s.writeLocked(nb)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("notebook: delete %s: %w", id, err)
	}
	s.log.Info().Str("notebook_id", id).Msg("notebook deleted")
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) readLocked(id string) (*Notebook, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("notebook: read %s: %w", id, err)
	}
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("notebook: decode %s: %w", id, err)
	}
	return &nb, nil
}

func (s *FileStore) writeLocked(nb *Notebook) error {
	data, err := json.MarshalIndent(nb, "", "  ")
	if err != nil {
		return fmt.Errorf("notebook: encode %s: %w", nb.ID, err)
	}
	tmp := s.path(nb.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("notebook: write %s: %w", nb.ID, err)
	}
	if err := os.Rename(tmp, s.path(nb.ID)); err != nil {
		return fmt.Errorf("notebook: commit %s: %w", nb.ID, err)
	}
	return nil
}
