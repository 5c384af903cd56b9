// Package postgres persists accounts in PostgreSQL through pgx. The schema is
// embedded and applied with goose; per-account atomicity comes from row locks
// taken inside a transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, password_hash, name, phone, role, is_verified,
	otp_code, otp_expires_at, reset_token, reset_token_expires_at,
	created_at, updated_at, version`

// Store is a PostgreSQL backed [store.Store].
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects a pool for dsn.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return pool, nil
}

// New wraps an existing pool. Close releases the pool.
func New(pool *pgxpool.Pool, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{pool: pool, now: now}
}

func (s *Store) Create(ctx context.Context, account *store.Account) error {
	if err := store.ValidateChallenges(account); err != nil {
		return err
	}
	candidate := account.Clone()
	candidate.Email = store.NormalizeEmail(candidate.Email)
	candidate.Version = 0
	candidate.CreatedAt = time.Time{}
	store.Touch(&candidate, s.now().UTC())

	otpCode, otpExpires := challengeArgs(candidate.OTP)
	resetToken, resetExpires := challengeArgs(candidate.Reset)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		candidate.ID, candidate.Email, candidate.PasswordHash, candidate.Name, candidate.Phone,
		string(candidate.Role), candidate.IsVerified,
		otpCode, otpExpires, resetToken, resetExpires,
		candidate.CreatedAt, candidate.UpdatedAt, candidate.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrDuplicateEmail
		}
		return mapError(err)
	}

	*account = candidate
	return nil
}

func (s *Store) Get(ctx context.Context, id string, opts ...store.ReadOption) (store.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	acc, err := scanAccount(row)
	if err != nil {
		return store.Account{}, mapError(err)
	}
	return store.Project(acc, opts), nil
}

func (s *Store) GetByEmail(ctx context.Context, email string, opts ...store.ReadOption) (store.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = $1`, store.NormalizeEmail(email))
	acc, err := scanAccount(row)
	if err != nil {
		return store.Account{}, mapError(err)
	}
	return store.Project(acc, opts), nil
}

func (s *Store) GetByResetToken(ctx context.Context, token string, now time.Time) (store.Account, error) {
	if token == "" {
		return store.Account{}, store.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE reset_token = $1 AND reset_token_expires_at >= $2
		LIMIT 1`, token, now.UTC())
	acc, err := scanAccount(row)
	if err != nil {
		return store.Account{}, mapError(err)
	}
	return acc, nil
}

func (s *Store) Update(ctx context.Context, id string, fn store.Mutator) (store.Account, error) {
	var (
		updated store.Account
		abort   error
	)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
		current, err := scanAccount(row)
		if err != nil {
			return err
		}

		next := current.Clone()
		if abort = fn(&next); abort != nil {
			return abort
		}
		if abort = store.ValidateChallenges(&next); abort != nil {
			return abort
		}
		next.ID = current.ID
		next.Email = current.Email
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version
		store.Touch(&next, s.now().UTC())

		otpCode, otpExpires := challengeArgs(next.OTP)
		resetToken, resetExpires := challengeArgs(next.Reset)

		_, err = tx.Exec(ctx, `
			UPDATE accounts SET
				password_hash = $2, name = $3, phone = $4, role = $5, is_verified = $6,
				otp_code = $7, otp_expires_at = $8, reset_token = $9, reset_token_expires_at = $10,
				updated_at = $11, version = $12
			WHERE id = $1`,
			next.ID, next.PasswordHash, next.Name, next.Phone, string(next.Role), next.IsVerified,
			otpCode, otpExpires, resetToken, resetExpires,
			next.UpdatedAt, next.Version,
		)
		if err != nil {
			return err
		}
		updated = next
		return nil
	})
	if abort != nil {
		return store.Account{}, abort
	}
	if err != nil {
		return store.Account{}, mapError(err)
	}
	return store.Project(updated, nil), nil
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]store.Account, error) {
	opts = opts.Normalize()
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`, opts.Offset, opts.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]store.Account, 0, opts.Limit)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, store.Project(acc, nil))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanAccount(row pgx.Row) (store.Account, error) {
	var (
		acc          store.Account
		role         string
		otpCode      *string
		otpExpires   *time.Time
		resetToken   *string
		resetExpires *time.Time
	)
	err := row.Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.Name, &acc.Phone, &role, &acc.IsVerified,
		&otpCode, &otpExpires, &resetToken, &resetExpires,
		&acc.CreatedAt, &acc.UpdatedAt, &acc.Version,
	)
	if err != nil {
		return store.Account{}, err
	}
	acc.Role = store.Role(role)
	if otpCode != nil && otpExpires != nil {
		acc.OTP = &store.Challenge{Secret: *otpCode, ExpiresAt: otpExpires.UTC()}
	}
	if resetToken != nil && resetExpires != nil {
		acc.Reset = &store.Challenge{Secret: *resetToken, ExpiresAt: resetExpires.UTC()}
	}
	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.UpdatedAt = acc.UpdatedAt.UTC()
	return acc, nil
}

func challengeArgs(c *store.Challenge) (*string, *time.Time) {
	if c == nil {
		return nil, nil
	}
	secret := c.Secret
	expires := c.ExpiresAt.UTC()
	return &secret, &expires
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return store.ErrNotFound
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

var _ store.Store = (*Store)(nil)
