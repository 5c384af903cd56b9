// Package redisstore persists accounts in Redis. Each account is one JSON
// record; email and reset-token lookups go through secondary index keys that
// are maintained in the same MULTI as the record.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"github.com/redis/go-redis/v9"
)

const (
	recordVersionV1 = 1
	maxRetries      = 8
)

var errRecordVersion = errors.New("unsupported account record version")

type challengeRecord struct {
	Secret    string    `json:"s"`
	ExpiresAt time.Time `json:"e"`
}

type accountRecord struct {
	V            int              `json:"v"`
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"ph"`
	Name         string           `json:"name,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Role         string           `json:"role"`
	IsVerified   bool             `json:"verified"`
	OTP          *challengeRecord `json:"otp,omitempty"`
	Reset        *challengeRecord `json:"reset,omitempty"`
	CreatedAt    time.Time        `json:"created"`
	UpdatedAt    time.Time        `json:"updated"`
	Version      int64            `json:"ver"`
}

// Store is a Redis backed [store.Store].
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New returns a store using keys under prefix ("acc" when empty).
func New(client redis.UniversalClient, prefix string, now func() time.Time) *Store {
	if prefix == "" {
		prefix = "acc"
	}
	if now == nil {
		now = time.Now
	}
	return &Store{redis: client, prefix: prefix, now: now}
}

func (s *Store) accountKey(id string) string  { return s.prefix + ":acct:" + id }
func (s *Store) emailKey(email string) string { return s.prefix + ":email:" + email }
func (s *Store) resetKey(token string) string { return s.prefix + ":reset:" + token }
func (s *Store) indexKey() string             { return s.prefix + ":idx" }

func (s *Store) Create(ctx context.Context, account *store.Account) error {
	if err := store.ValidateChallenges(account); err != nil {
		return err
	}
	email := store.NormalizeEmail(account.Email)
	emailKey := s.emailKey(email)

	for i := 0; i < maxRetries; i++ {
		candidate := account.Clone()
		candidate.Email = email
		candidate.Version = 0
		candidate.CreatedAt = time.Time{}
		store.Touch(&candidate, s.now().UTC())

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, emailKey).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return store.ErrDuplicateEmail
			}

			data, err := encodeAccount(candidate)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.accountKey(candidate.ID), data, 0)
				pipe.Set(ctx, emailKey, candidate.ID, 0)
				pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(candidate.CreatedAt.UnixNano()), Member: candidate.ID})
				s.queueResetIndex(ctx, pipe, candidate.ID, nil, candidate.Reset)
				return nil
			})
			return err
		}, emailKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return mapError(err)
		}

		*account = candidate
		return nil
	}
	return store.ErrConflict
}

func (s *Store) Get(ctx context.Context, id string, opts ...store.ReadOption) (store.Account, error) {
	acc, err := s.load(ctx, s.redis, id)
	if err != nil {
		return store.Account{}, err
	}
	return store.Project(acc, opts), nil
}

func (s *Store) GetByEmail(ctx context.Context, email string, opts ...store.ReadOption) (store.Account, error) {
	id, err := s.redis.Get(ctx, s.emailKey(store.NormalizeEmail(email))).Result()
	if err != nil {
		return store.Account{}, mapError(err)
	}
	return s.Get(ctx, id, opts...)
}

func (s *Store) GetByResetToken(ctx context.Context, token string, now time.Time) (store.Account, error) {
	if token == "" {
		return store.Account{}, store.ErrNotFound
	}
	id, err := s.redis.Get(ctx, s.resetKey(token)).Result()
	if err != nil {
		return store.Account{}, mapError(err)
	}
	acc, err := s.load(ctx, s.redis, id)
	if err != nil {
		return store.Account{}, err
	}
	if acc.Reset == nil || acc.Reset.Secret != token || now.After(acc.Reset.ExpiresAt) {
		return store.Account{}, store.ErrNotFound
	}
	return acc, nil
}

func (s *Store) Update(ctx context.Context, id string, fn store.Mutator) (store.Account, error) {
	key := s.accountKey(id)

	for i := 0; i < maxRetries; i++ {
		var (
			updated store.Account
			abort   error
		)

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := s.load(ctx, tx, id)
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

			data, err := encodeAccount(next)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				s.queueResetIndex(ctx, pipe, next.ID, current.Reset, next.Reset)
				return nil
			})
			if err != nil {
				return err
			}
			updated = next
			return nil
		}, key)

		if abort != nil {
			return store.Account{}, abort
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return store.Account{}, mapError(err)
		}
		return store.Project(updated, nil), nil
	}
	return store.Account{}, store.ErrConflict
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]store.Account, error) {
	opts = opts.Normalize()
	start := int64(opts.Offset)
	stop := start + int64(opts.Limit) - 1

	ids, err := s.redis.ZRevRange(ctx, s.indexKey(), start, stop).Result()
	if err != nil {
		return nil, mapError(err)
	}
	if len(ids) == 0 {
		return []store.Account{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.accountKey(id)
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]store.Account, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		acc, err := decodeAccount([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, store.Project(acc, nil))
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op; the caller owns the Redis client.
func (s *Store) Close() error {
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) load(ctx context.Context, c getter, id string) (store.Account, error) {
	data, err := c.Get(ctx, s.accountKey(id)).Bytes()
	if err != nil {
		return store.Account{}, mapError(err)
	}
	return decodeAccount(data)
}

// queueResetIndex keeps the reset-token index in step with the record. The
// index key lives one second past the challenge expiry so the boundary
// instant still resolves; validity is always decided on the record itself.
func (s *Store) queueResetIndex(ctx context.Context, pipe redis.Pipeliner, id string, prev, next *store.Challenge) {
	if prev != nil && (next == nil || next.Secret != prev.Secret) {
		pipe.Del(ctx, s.resetKey(prev.Secret))
	}
	if next == nil {
		return
	}
	ttl := next.ExpiresAt.Sub(s.now()) + time.Second
	if ttl < time.Second {
		ttl = time.Second
	}
	pipe.Set(ctx, s.resetKey(next.Secret), id, ttl)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return store.ErrNotFound
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, store.ErrUnavailable),
		errors.Is(err, errRecordVersion),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

func encodeAccount(a store.Account) ([]byte, error) {
	rec := accountRecord{
		V:            recordVersionV1,
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Phone:        a.Phone,
		Role:         string(a.Role),
		IsVerified:   a.IsVerified,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Version:      a.Version,
	}
	if a.OTP != nil {
		rec.OTP = &challengeRecord{Secret: a.OTP.Secret, ExpiresAt: a.OTP.ExpiresAt}
	}
	if a.Reset != nil {
		rec.Reset = &challengeRecord{Secret: a.Reset.Secret, ExpiresAt: a.Reset.ExpiresAt}
	}
	return json.Marshal(rec)
}

func decodeAccount(data []byte) (store.Account, error) {
	var rec accountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.Account{}, fmt.Errorf("decode account record: %w", err)
	}
	if rec.V != recordVersionV1 {
		return store.Account{}, errRecordVersion
	}
	acc := store.Account{
		ID:           rec.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Name:         rec.Name,
		Phone:        rec.Phone,
		Role:         store.Role(rec.Role),
		IsVerified:   rec.IsVerified,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		Version:      rec.Version,
	}
	if rec.OTP != nil {
		acc.OTP = &store.Challenge{Secret: rec.OTP.Secret, ExpiresAt: rec.OTP.ExpiresAt}
	}
	if rec.Reset != nil {
		acc.Reset = &store.Challenge{Secret: rec.Reset.Secret, ExpiresAt: rec.Reset.ExpiresAt}
	}
	return acc, nil
}

var _ store.Store = (*Store)(nil)
