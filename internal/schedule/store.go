package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSlotUnavailable is returned by Confirm when the requested slot does
// not exist or was already taken. The caller must surface this as an
// explicit rejection — there is no automatic fallback to another slot.
var ErrSlotUnavailable = fmt.Errorf("slot no longer available")

// Store persists the computed availability per application.
//
// Slot identity is (application_id, start_at): two slots with the same
// start never coexist for one application, so a Replace after a settings
// change simply overwrites the set.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Replace atomically swaps the stored slot set for an application:
// delete-then-insert inside one transaction, so a concurrent reader never
// observes a partial mix of old and new slots.
func (s *Store) Replace(ctx context.Context, applicationID string, slots []Slot) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("replace begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM interview_slots WHERE application_id = $1`,
		applicationID,
	); err != nil {
		return fmt.Errorf("replace delete: %w", err)
	}

	for _, sl := range slots {
		if _, err := tx.Exec(ctx,
			`INSERT INTO interview_slots (application_id, start_at, end_at, is_available)
			 VALUES ($1, $2, $3, true)`,
			applicationID, sl.Start, sl.End,
		); err != nil {
			return fmt.Errorf("replace insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replace commit: %w", err)
	}
	return nil
}

// ListAvailable returns the application's still-open slots in
// chronological order.
func (s *Store) ListAvailable(ctx context.Context, applicationID string) ([]Slot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT start_at, end_at
		 FROM interview_slots
		 WHERE application_id = $1 AND is_available
		 ORDER BY start_at`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listAvailable query: %w", err)
	}
	defer rows.Close()

	slots := make([]Slot, 0)
	for rows.Next() {
		var sl Slot
		if err := rows.Scan(&sl.Start, &sl.End); err != nil {
			return nil, fmt.Errorf("listAvailable scan: %w", err)
		}
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

// Release re-opens a slot consumed by Confirm. Used to compensate when
// the confirmed time could not be persisted on the application, so the
// candidate's retry does not hit ErrSlotUnavailable on a slot nobody
// holds.
func (s *Store) Release(ctx context.Context, applicationID string, start time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE interview_slots
		 SET is_available = true
		 WHERE application_id = $1 AND start_at = $2`,
		applicationID, start,
	); err != nil {
		return fmt.Errorf("release update: %w", err)
	}
	return nil
}

// Confirm atomically checks that the slot starting at start is still open
// and marks it unavailable. The single conditional UPDATE is the race
// guard: of two concurrent confirmations, exactly one sees is_available
// and wins; the other gets ErrSlotUnavailable.
func (s *Store) Confirm(ctx context.Context, applicationID string, start time.Time) (Slot, error) {
	var sl Slot
	err := s.pool.QueryRow(ctx,
		`UPDATE interview_slots
		 SET is_available = false
		 WHERE application_id = $1 AND start_at = $2 AND is_available
		 RETURNING start_at, end_at`,
		applicationID, start,
	).Scan(&sl.Start, &sl.End)
	if errors.Is(err, pgx.ErrNoRows) {
		return Slot{}, ErrSlotUnavailable
	}
	if err != nil {
		return Slot{}, fmt.Errorf("confirm update: %w", err)
	}
	return sl, nil
}
