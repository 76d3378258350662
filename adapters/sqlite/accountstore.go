package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/period"
	"github.com/vaultmeter/vaultmeter/ports"
)

// AccountStore implements ports.AccountStore using SQLite.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new SQLite account store.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, owner_id, folder_id, name, description, tags, reset_policy,
	usage_limit, current_usage, is_active, created_at, updated_at`

func (s *AccountStore) List(ctx context.Context, ownerID string) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE owner_id = ?
		ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]account.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AccountStore) Get(ctx context.Context, ownerID, id string) (account.Account, error) {
	return getAccount(ctx, s.db, ownerID, id)
}

func (s *AccountStore) Create(ctx context.Context, a account.Account) error {
	tags, err := encodeTags(a.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.OwnerID, a.FolderID, a.Name, a.Description, tags, string(a.ResetPolicy),
		nullableLimit(a.UsageLimit), a.CurrentUsage, a.IsActive,
		toNanos(a.CreatedAt), toNanos(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Update reads, patches and writes the row inside one transaction.
func (s *AccountStore) Update(ctx context.Context, ownerID, id string, p account.Patch, at time.Time) (account.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return account.Account{}, err
	}
	defer tx.Rollback()

	current, err := getAccount(ctx, tx, ownerID, id)
	if err != nil {
		return account.Account{}, err
	}
	updated, err := current.Apply(p, at)
	if err != nil {
		return account.Account{}, err
	}
	tags, err := encodeTags(updated.Tags)
	if err != nil {
		return account.Account{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts
		SET folder_id = ?, name = ?, description = ?, tags = ?, reset_policy = ?,
		    usage_limit = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`,
		updated.FolderID, updated.Name, updated.Description, tags, string(updated.ResetPolicy),
		nullableLimit(updated.UsageLimit), updated.IsActive, toNanos(updated.UpdatedAt),
		id, ownerID,
	)
	if err != nil {
		return account.Account{}, fmt.Errorf("update account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return account.Account{}, err
	}
	return updated, nil
}

func (s *AccountStore) SetUsage(ctx context.Context, ownerID, id string, usage int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET current_usage = ? WHERE id = ? AND owner_id = ?",
		usage, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("set usage: %w", err)
	}
	return expectRow(res)
}

func (s *AccountStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM accounts WHERE id = ? AND owner_id = ?", id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return expectRow(res)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getAccount(ctx context.Context, q queryer, ownerID, id string) (account.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, ports.ErrNotFound
	}
	return a, err
}

func scanAccount(row scanner) (account.Account, error) {
	var (
		a                account.Account
		tags, policy     string
		limit            sql.NullInt64
		created, updated int64
	)
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.FolderID, &a.Name, &a.Description, &tags, &policy,
		&limit, &a.CurrentUsage, &a.IsActive, &created, &updated,
	)
	if err != nil {
		return account.Account{}, err
	}

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return account.Account{}, fmt.Errorf("decode tags of %s: %w", a.ID, err)
	}
	a.ResetPolicy = period.Policy(policy)
	if limit.Valid {
		v := limit.Int64
		a.UsageLimit = &v
	}
	a.CreatedAt = fromNanos(created)
	a.UpdatedAt = fromNanos(updated)
	return a, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func nullableLimit(limit *int64) sql.NullInt64 {
	if limit == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *limit, Valid: true}
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

var _ ports.AccountStore = (*AccountStore)(nil)
