// Package memory provides an in-process account store used by tests, the
// development daemon and examples.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/store"
)

// Store keeps accounts in a map guarded by a single RWMutex. Update holds the
// write lock for the duration of the mutator, which gives per-account atomicity.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]store.Account
	byEmail map[string]string
	now     func() time.Time
}

// New returns an empty store. A nil clock defaults to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		byID:    make(map[string]store.Account),
		byEmail: make(map[string]string),
		now:     now,
	}
}

func (s *Store) Create(ctx context.Context, account *store.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateChallenges(account); err != nil {
		return err
	}
	email := store.NormalizeEmail(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return store.ErrDuplicateEmail
	}

	account.Email = email
	account.Version = 0
	account.CreatedAt = time.Time{}
	store.Touch(account, s.now().UTC())

	s.byID[account.ID] = account.Clone()
	s.byEmail[email] = account.ID
	return nil
}

func (s *Store) Get(ctx context.Context, id string, opts ...store.ReadOption) (store.Account, error) {
	if err := ctx.Err(); err != nil {
		return store.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return store.Project(acc, opts), nil
}

func (s *Store) GetByEmail(ctx context.Context, email string, opts ...store.ReadOption) (store.Account, error) {
	if err := ctx.Err(); err != nil {
		return store.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[store.NormalizeEmail(email)]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return store.Project(s.byID[id], opts), nil
}

func (s *Store) GetByResetToken(ctx context.Context, token string, now time.Time) (store.Account, error) {
	if err := ctx.Err(); err != nil {
		return store.Account{}, err
	}
	if token == "" {
		return store.Account{}, store.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acc := range s.byID {
		if acc.Reset == nil || acc.Reset.Secret != token {
			continue
		}
		if now.After(acc.Reset.ExpiresAt) {
			return store.Account{}, store.ErrNotFound
		}
		return acc.Clone(), nil
	}
	return store.Account{}, store.ErrNotFound
}

func (s *Store) Update(ctx context.Context, id string, fn store.Mutator) (store.Account, error) {
	if err := ctx.Err(); err != nil {
		return store.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return store.Account{}, err
	}
	if err := store.ValidateChallenges(&next); err != nil {
		return store.Account{}, err
	}

	// identity fields are immutable through Update
	next.ID = current.ID
	next.Email = current.Email
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version
	store.Touch(&next, s.now().UTC())

	s.byID[id] = next.Clone()
	return store.Project(next, nil), nil
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.Normalize()

	s.mu.RLock()
	all := make([]store.Account, 0, len(s.byID))
	for _, acc := range s.byID {
		all = append(all, store.Project(acc, nil))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if opts.Offset >= len(all) {
		return []store.Account{}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[opts.Offset:end], nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
