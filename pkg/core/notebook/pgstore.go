package notebook

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*PGStore)(nil)
)

// PGStore persists notebooks in PostgreSQL. All operations are safe for
// concurrent use; schema migrations run once at construction.
type PGStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPGStore(ctx context.Context, dsn string, log zerolog.Logger) (*PGStore, error) {
	if err := migrate(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("notebook: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("notebook: ping database: %w", err)
	}
	log.Info().Msg("notebook store connected")
	return &PGStore{pool: pool, log: log}, nil
}

// migrate brings the schema up to date. goose works against database/sql, so
// it gets its own short-lived connection through the pgx stdlib driver.
func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("notebook: open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("notebook: set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("notebook: run migrations: %w", err)
	}
	return nil
}

func (s *PGStore) Create(ctx context.Context, nb *Notebook) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notebooks (id, title, summary, language, document, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		nb.ID, nb.Title, nb.Summary, nb.Language, nb.Document, nb.CreatedAt)
	if err != nil {
		return fmt.Errorf("notebook: insert %s: %w", nb.ID, err)
	}
	s.log.Info().Str("notebook_id", nb.ID).Str("title", nb.Title).Msg("notebook created")
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (*Notebook, error) {
	var nb Notebook
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, summary, language, document, created_at
		 FROM notebooks WHERE id = $1`, id).
		Scan(&nb.ID, &nb.Title, &nb.Summary, &nb.Language, &nb.Document, &nb.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("notebook: select %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, question, answer, source, created_at
		 FROM notebook_turns WHERE notebook_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("notebook: select turns for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(&turn.ID, &turn.Question, &turn.Answer, &turn.Source, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("notebook: scan turn: %w", err)
		}
		nb.Turns = append(nb.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notebook: iterate turns: %w", err)
	}

	noteRows, err := s.pool.Query(ctx,
		`SELECT id, text, created_at
		 FROM notebook_notes WHERE notebook_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("notebook: select notes for %s: %w", id, err)
	}
	defer noteRows.Close()
	for noteRows.Next() {
		var note Note
		if err := noteRows.Scan(&note.ID, &note.Text, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("notebook: scan note: %w", err)
		}
		nb.Notes = append(nb.Notes, note)
	}
	if err := noteRows.Err(); err != nil {
		return nil, fmt.Errorf("notebook: iterate notes: %w", err)
	}
	return &nb, nil
}

func (s *PGStore) List(ctx context.Context) ([]*Notebook, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, summary, language, created_at
		 FROM notebooks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("notebook: list: %w", err)
	}
	defer rows.Close()

	var notebooks []*Notebook
	for rows.Next() {
		var nb Notebook
		if err := rows.Scan(&nb.ID, &nb.Title, &nb.Summary, &nb.Language, &nb.CreatedAt); err != nil {
			return nil, fmt.Errorf("notebook: scan notebook: %w", err)
		}
		notebooks = append(notebooks, &nb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notebook: iterate notebooks: %w", err)
	}
	return notebooks, nil
}

func (s *PGStore) UpdateSummary(ctx context.Context, id, title, summary string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notebooks SET title = $2, summary = $3 WHERE id = $1`,
		id, title, summary)
	if err != nil {
		return fmt.Errorf("notebook: update summary %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) AppendTurn(ctx context.Context, notebookID string, turn Turn) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notebook_turns (id, notebook_id, question, answer, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID, notebookID, turn.Question, turn.Answer, turn.Source, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("notebook: insert turn for %s: %w", notebookID, err)
	}
	s.log.Debug().Str("notebook_id", notebookID).Str("source", turn.Source).Msg("turn appended")
	return nil
}

func (s *PGStore) AddNote(ctx context.Context, notebookID string, note Note) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notebook_notes (id, notebook_id, text, created_at)
		 VALUES ($1, $2, $3, $4)`,
		note.ID, notebookID, note.Text, note.CreatedAt)
	if err != nil {
		return fmt.Errorf("notebook: insert note for %s: %w", notebookID, err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notebooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notebook: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.log.Info().Str("notebook_id", id).Msg("notebook deleted")
	return nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
