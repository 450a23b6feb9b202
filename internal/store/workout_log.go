package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// WorkoutLog is the record saved when a workout stops.
type WorkoutLog struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	Exercise   string    `json:"exercise"`
	Side       string    `json:"side"`
	RepsLeft   int       `json:"reps_left"`
	RepsRight  int       `json:"reps_right"`
	Duration   float64   `json:"duration"`
	SetNumber  int       `json:"set_number"`
	TargetReps int       `json:"target_reps"`
	TargetSets int       `json:"target_sets"`
	Timestamp  time.Time `json:"timestamp"`
}

// WorkoutLogRepository provides operations on workout logs.
type WorkoutLogRepository struct {
	db *sql.DB
}

// WorkoutLogs returns the workout log repository for this store.
func (s *Store) WorkoutLogs() *WorkoutLogRepository {
	return &WorkoutLogRepository{db: s.db}
}

// Create inserts a log. A missing ID or timestamp is filled in.
func (r *WorkoutLogRepository) Create(l *WorkoutLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	l.Timestamp = l.Timestamp.UTC()

	_, err := r.db.Exec(
		`INSERT INTO workout_logs (id, user_id, exercise, side, reps_left, reps_right, duration, set_number, target_reps, target_sets, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Exercise, l.Side, l.RepsLeft, l.RepsRight, l.Duration, l.SetNumber, l.TargetReps, l.TargetSets, l.Timestamp,
	)
	return err
}

// GetByID retrieves a log by its ID.
func (r *WorkoutLogRepository) GetByID(id string) (*WorkoutLog, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, exercise, side, reps_left, reps_right, duration, set_number, target_reps, target_sets, timestamp
		 FROM workout_logs WHERE id = ?`,
		id,
	)

	l, err := scanLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// List returns the user's logs, most recent first. A limit <= 0 returns all of them.
func (r *WorkoutLogRepository) List(userID string, limit int) ([]*WorkoutLog, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, user_id, exercise, side, reps_left, reps_right, duration, set_number, target_reps, target_sets, timestamp
		 FROM workout_logs WHERE user_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*WorkoutLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

// Delete removes a log by its ID.
func (r *WorkoutLogRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM workout_logs WHERE id = ?`, id)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(s scanner) (*WorkoutLog, error) {
	l := &WorkoutLog{}
	err := s.Scan(&l.ID, &l.UserID, &l.Exercise, &l.Side, &l.RepsLeft, &l.RepsRight,
		&l.Duration, &l.SetNumber, &l.TargetReps, &l.TargetSets, &l.Timestamp)
	if err != nil {
		return nil, err
	}
	return l, nil
}
