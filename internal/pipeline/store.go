package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hireflow/scheduling-service/internal/schedule"
)

const applicationColumns = `id, candidate_name, candidate_email, job_title, department,
	status, final_status, confirmed_interview_at, scheduling_settings, created_at, updated_at`

// PostgresStore is the pgx-backed ApplicationStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new application row.
func (s *PostgresStore) Create(ctx context.Context, app Application) (*Application, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO applications
		   (id, candidate_name, candidate_email, job_title, department, status, final_status)
		 VALUES ($1, $2, $3, $4, $5, $6::application_status, $7::final_status)
		 RETURNING `+applicationColumns,
		app.ID, app.CandidateName, app.CandidateEmail, app.JobTitle, app.Department,
		string(app.Status), string(app.FinalStatus),
	)
	return scanApplication(row)
}

// Get returns one application by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Application, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return app, err
}

// UpdateStatus moves id from → to with the stored status as the guard: a
// concurrent transition that got there first leaves zero rows affected
// and the call fails with ErrInvalidTransition.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to Status, settings *schedule.Settings) (*Application, error) {
	settingsJSON, err := settingsParam(settings)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE applications
		 SET status = $1::application_status,
		     scheduling_settings = COALESCE($2::jsonb, scheduling_settings),
		     updated_at = NOW()
		 WHERE id = $3 AND status = $4::application_status
		 RETURNING `+applicationColumns,
		string(to), settingsJSON, id, string(from),
	)
	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: application is no longer in %s", ErrInvalidTransition, from)
	}
	return app, err
}

// SetConfirmedTime records the candidate's confirmed interview time.
func (s *PostgresStore) SetConfirmedTime(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE applications SET confirmed_interview_at = $1, updated_at = NOW() WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("setConfirmedTime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalizeOutcome writes the terminal stage and the write-once final
// status in one statement. The final_status = 'PENDING' predicate is the
// write-once guard: a second finalize attempt affects zero rows and
// fails with ErrFinalStatusSet.
func (s *PostgresStore) FinalizeOutcome(ctx context.Context, id string, from, to Status, outcome FinalStatus) (*Application, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE applications
		 SET status = $1::application_status,
		     final_status = $2::final_status,
		     updated_at = NOW()
		 WHERE id = $3
		   AND status = $4::application_status
		   AND final_status = 'PENDING'
		 RETURNING `+applicationColumns,
		string(to), string(outcome), id, string(from),
	)
	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFinalStatusSet
	}
	return app, err
}

// ListAwaitingSlotChoice returns applications in INTERVIEW with no
// confirmed time yet.
func (s *PostgresStore) ListAwaitingSlotChoice(ctx context.Context) ([]Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE status = 'INTERVIEW' AND confirmed_interview_at IS NULL
		 ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("listAwaitingSlotChoice query: %w", err)
	}
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("listAwaitingSlotChoice scan: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		app          Application
		statusStr    string
		finalStr     string
		settingsJSON []byte
	)
	if err := row.Scan(
		&app.ID, &app.CandidateName, &app.CandidateEmail, &app.JobTitle, &app.Department,
		&statusStr, &finalStr, &app.ConfirmedAt, &settingsJSON, &app.CreatedAt, &app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	app.Status = Status(statusStr)
	app.FinalStatus = FinalStatus(finalStr)
	if len(settingsJSON) > 0 {
		var settings schedule.Settings
		if err := json.Unmarshal(settingsJSON, &settings); err != nil {
			return nil, fmt.Errorf("decode scheduling settings: %w", err)
		}
		app.Settings = &settings
	}
	return &app, nil
}

func settingsParam(settings *schedule.Settings) (*string, error) {
	if settings == nil {
		return nil, nil
	}
	body, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode scheduling settings: %w", err)
	}
	s := string(body)
	return &s, nil
}
