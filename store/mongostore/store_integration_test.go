//go:build integration
// +build integration

package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"github.com/MrEthical07/goAccount/store/storetest"
	"github.com/google/uuid"
)

func TestConformance(t *testing.T) {
	uri := os.Getenv("MONGO_URL")
	if uri == "" {
		t.Skip("MONGO_URL not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := Connect(ctx, uri)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		db := "goaccount_test_" + uuid.NewString()[:8]
		s := New(client, db, "", nil)
		if err := s.EnsureIndexes(ctx); err != nil {
			t.Fatalf("indexes: %v", err)
		}
		t.Cleanup(func() {
			_ = client.Database(db).Drop(context.Background())
			_ = s.Close()
		})
		return s
	})
}
