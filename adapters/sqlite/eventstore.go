package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/ports"
)

// EventStore implements ports.EventStore using SQLite.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new SQLite event store.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = "id, owner_id, account_id, amount, description, ts"

func (s *EventStore) List(ctx context.Context, ownerID string) ([]usage.Event, error) {
	return s.query(ctx, `
		SELECT `+eventColumns+`
		FROM usage_events
		WHERE owner_id = ?
		ORDER BY ts, id
	`, ownerID)
}

func (s *EventStore) ListForAccount(ctx context.Context, ownerID, accountID string) ([]usage.Event, error) {
	return s.query(ctx, `
		SELECT `+eventColumns+`
		FROM usage_events
		WHERE owner_id = ? AND account_id = ?
		ORDER BY ts, id
	`, ownerID, accountID)
}

func (s *EventStore) query(ctx context.Context, q string, args ...any) ([]usage.Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]usage.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *EventStore) Append(ctx context.Context, e usage.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.OwnerID, e.AccountID, e.Amount, e.Description, toNanos(e.Timestamp))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *EventStore) Get(ctx context.Context, ownerID, id string) (usage.Event, error) {
	return getEvent(ctx, s.db, ownerID, id)
}

func (s *EventStore) Update(ctx context.Context, ownerID, id string, p usage.Patch) (usage.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return usage.Event{}, err
	}
	defer tx.Rollback()

	current, err := getEvent(ctx, tx, ownerID, id)
	if err != nil {
		return usage.Event{}, err
	}
	updated, err := current.Apply(p)
	if err != nil {
		return usage.Event{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE usage_events SET amount = ?, description = ? WHERE id = ? AND owner_id = ?",
		updated.Amount, updated.Description, id, ownerID,
	); err != nil {
		return usage.Event{}, fmt.Errorf("update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return usage.Event{}, err
	}
	return updated, nil
}

func (s *EventStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_events WHERE id = ? AND owner_id = ?", id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectRow(res)
}

func getEvent(ctx context.Context, q queryer, ownerID, id string) (usage.Event, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM usage_events
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return usage.Event{}, ports.ErrNotFound
	}
	return e, err
}

func scanEvent(row scanner) (usage.Event, error) {
	var (
		e  usage.Event
		ts int64
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.AccountID, &e.Amount, &e.Description, &ts); err != nil {
		return usage.Event{}, err
	}
	e.Timestamp = fromNanos(ts)
	return e, nil
}

var _ ports.EventStore = (*EventStore)(nil)
