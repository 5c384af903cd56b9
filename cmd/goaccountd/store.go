package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAccount/store"
	"github.com/MrEthical07/goAccount/store/memory"
	"github.com/MrEthical07/goAccount/store/mongostore"
	"github.com/MrEthical07/goAccount/store/postgres"
	"github.com/MrEthical07/goAccount/store/redisstore"
)

const (
	defaultMongoDatabase = "goaccount"
	redisKeyPrefix       = "goaccount"
)

// openStore selects a backend from the URL scheme. The returned store owns
// every connection it opened; closing it releases them.
func openStore(ctx context.Context, rawURL string, log *slog.Logger) (store.Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "", "memory":
		log.Warn("using in-memory account store; data is lost on exit")
		return memory.New(nil), nil

	case "redis", "rediss":
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &ownedStore{
			Store: redisstore.New(client, redisKeyPrefix, nil),
			close: client.Close,
		}, nil

	case "postgres", "postgresql":
		pool, err := postgres.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(pool, nil), nil

	case "mongodb", "mongodb+srv":
		client, err := mongostore.Connect(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		database := strings.TrimPrefix(u.Path, "/")
		if database == "" {
			database = defaultMongoDatabase
		}
		st := mongostore.New(client, database, "", nil)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

// ownedStore closes a client the wrapped store does not own.
type ownedStore struct {
	store.Store
	close func() error
}

func (s *ownedStore) Close() error {
	err := s.Store.Close()
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}
