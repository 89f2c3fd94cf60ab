package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one program execution.
type Run struct {
	ID        string
	Settings  json.RawMessage
	Frames    int
	StartedAt time.Time
	EndedAt   *time.Time
}

// RunRepository provides access to runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create starts a new run with a fresh ID. settings is stored as JSON.
func (r *RunRepository) Create(settings any) (*Run, error) {
	raw := json.RawMessage("{}")
	if settings != nil {
		b, err := json.Marshal(settings)
		if err != nil {
			return nil, fmt.Errorf("encode run settings: %w", err)
		}
		raw = b
	}

	run := &Run{
		ID:        uuid.New().String(),
		Settings:  raw,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO runs (id, settings, frames, started_at) VALUES (?, ?, 0, ?)`,
		run.ID, string(run.Settings), run.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// Finish records the end of a run and the number of frames it processed.
func (r *RunRepository) Finish(id string, frames int) error {
	result, err := r.db.Exec(
		`UPDATE runs SET frames = ?, ended_at = ? WHERE id = ?`,
		frames, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run := &Run{}
	var settings string
	var ended sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, settings, frames, started_at, ended_at FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &settings, &run.Frames, &run.StartedAt, &ended)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	run.Settings = json.RawMessage(settings)
	if ended.Valid {
		run.EndedAt = &ended.Time
	}
	return run, nil
}

// List retrieves all runs, newest first.
func (r *RunRepository) List() ([]*Run, error) {
	rows, err := r.db.Query(
		`SELECT id, settings, frames, started_at, ended_at FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var settings string
		var ended sql.NullTime

		if err := rows.Scan(&run.ID, &settings, &run.Frames, &run.StartedAt, &ended); err != nil {
			return nil, err
		}

		run.Settings = json.RawMessage(settings)
		if ended.Valid {
			run.EndedAt = &ended.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
