package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/gaponukz/cobraBot/internal/domain"
)

// PostgresStore is the indexed on-disk alternative to the snapshot file. It
// implements the same Store contract, so callers never notice the backend.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStore{db: db, log: log}
}

// FindByID retrieves a user by their recipient id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
		SELECT id, language, ref_id, address
		FROM users
		WHERE id = $1
	`

	return s.scanOne(ctx, query, id)
}

// FindByAddress retrieves the user holding the given account address.
func (s *PostgresStore) FindByAddress(ctx context.Context, address string) (*domain.User, error) {
	const query = `
		SELECT id, language, ref_id, address
		FROM users
		WHERE address = $1
	`

	return s.scanOne(ctx, query, address)
}

// FindByRefID retrieves the user holding the given referral id.
func (s *PostgresStore) FindByRefID(ctx context.Context, refID string) (*domain.User, error) {
	const query = `
		SELECT id, language, ref_id, address
		FROM users
		WHERE ref_id = $1
	`

	needle := NormalizeRefID(refID)
	if needle == "" {
		return nil, ErrNotFound
	}

	return s.scanOne(ctx, query, needle)
}

// Insert persists a new user record.
func (s *PostgresStore) Insert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("directory: insert nil user")
	}

	const query = `
		INSERT INTO users (id, language, ref_id, address)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Language, user.RefID, user.Address); err != nil {
		if dup := duplicateError(err, ErrDuplicateID); dup != nil {
			return dup
		}
		s.log.Error("failed to insert user", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// Update applies the patch in one statement; the row either gets every named
// field or none of them.
func (s *PostgresStore) Update(ctx context.Context, id int64, patch Patch) (*domain.User, error) {
	const query = `
		UPDATE users
		SET language = COALESCE($2, language),
		    ref_id   = COALESCE($3, ref_id),
		    address  = COALESCE($4, address)
		WHERE id = $1
		RETURNING id, language, ref_id, address
	`

	var refID *string
	if patch.RefID != nil {
		normalized := NormalizeRefID(*patch.RefID)
		refID = &normalized
	}

	row := s.db.QueryRowContext(ctx, query, id, patch.Language, refID, patch.Address)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if dup := duplicateError(err, ErrDuplicateRefID); dup != nil {
			return nil, dup
		}
		s.log.Error("failed to update user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// All returns every record in insertion order.
func (s *PostgresStore) All(ctx context.Context) ([]*domain.User, error) {
	const query = `
		SELECT id, language, ref_id, address
		FROM users
		ORDER BY inserted_at, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Count returns the number of registered users.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// HealthCheck pings the database.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user    domain.User
		refID   sql.NullString
		address sql.NullString
	)

	if err := row.Scan(&user.ID, &user.Language, &refID, &address); err != nil {
		return nil, err
	}

	if refID.Valid {
		user.RefID = &refID.String
	}
	if address.Valid {
		user.Address = &address.String
	}

	return &user, nil
}

// duplicateError maps a postgres unique_violation (23505) to the ErrDuplicate*
// of the constraint that fired, matching what the file store reports. fallback
// covers constraints renamed out from under us.
func duplicateError(err error, fallback error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}

	switch {
	case strings.Contains(pqErr.Constraint, "ref_id"):
		return ErrDuplicateRefID
	case strings.Contains(pqErr.Constraint, "address"):
		return ErrDuplicateAddress
	case strings.Contains(pqErr.Constraint, "pkey"):
		return ErrDuplicateID
	default:
		return fallback
	}
}

var _ Store = (*PostgresStore)(nil)
