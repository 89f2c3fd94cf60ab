package store

import (
	"database/sql"
	"time"
)

// Session event kinds.
const (
	EventObserved = "observed"
	EventEvicted  = "evicted"
)

// SessionEvent records a session entering or leaving the tracked set.
type SessionEvent struct {
	ID        int64
	RunID     string
	Kind      string
	Process   string
	Key       string
	Volume    float64 // percent at the time of the event
	CreatedAt time.Time
}

// ControlError records a failed mixer operation on one session.
type ControlError struct {
	ID        int64
	RunID     string
	Process   string
	Key       string
	Op        string
	Message   string
	CreatedAt time.Time
}

// Journal appends diagnostics for a single run. It is never read back by the
// control loop; volume decisions are made from live mixer state only.
type Journal struct {
	db  *sql.DB
	run *Run
}

// StartRun creates a run and returns a Journal bound to it.
func (s *Store) StartRun(settings any) (*Journal, error) {
	run, err := s.Runs().Create(settings)
	if err != nil {
		return nil, err
	}
	return &Journal{db: s.db, run: run}, nil
}

// RunID returns the ID of the run being journaled.
func (j *Journal) RunID() string {
	return j.run.ID
}

// SessionObserved records a session joining the tracked set.
func (j *Journal) SessionObserved(process, key string, volume float64) error {
	return j.insertEvent(EventObserved, process, key, volume)
}

// SessionEvicted records a session leaving the tracked set.
func (j *Journal) SessionEvicted(process, key string) error {
	return j.insertEvent(EventEvicted, process, key, 0)
}

func (j *Journal) insertEvent(kind, process, key string, volume float64) error {
	_, err := j.db.Exec(
		`INSERT INTO session_events (run_id, kind, process, session_key, volume, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		j.run.ID, kind, process, key, volume, time.Now().UTC(),
	)
	return err
}

// ControlFailed records a failed operation on a session.
func (j *Journal) ControlFailed(process, key, op string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}

	_, err := j.db.Exec(
		`INSERT INTO control_errors (run_id, process, session_key, op, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		j.run.ID, process, key, op, message, time.Now().UTC(),
	)
	return err
}

// Finish closes the run with the number of frames processed.
func (j *Journal) Finish(frames int) error {
	return (&RunRepository{db: j.db}).Finish(j.run.ID, frames)
}

// SessionEvents returns the events of a run in insertion order.
func (s *Store) SessionEvents(runID string) ([]*SessionEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, kind, process, session_key, volume, created_at
		 FROM session_events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*SessionEvent
	for rows.Next() {
		e := &SessionEvent{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.Kind, &e.Process, &e.Key, &e.Volume, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// ControlErrors returns the control errors of a run in insertion order.
func (s *Store) ControlErrors(runID string) ([]*ControlError, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, process, session_key, op, message, created_at
		 FROM control_errors WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []*ControlError
	for rows.Next() {
		e := &ControlError{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.Process, &e.Key, &e.Op, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		errs = append(errs, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return errs, nil
}
