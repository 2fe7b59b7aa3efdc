package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("newTestSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestRedis requires Redis running on localhost:6379 and skips otherwise.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test database: %v", err)
	}
	r, err := NewRedis(client, RedisConfig{KeyPrefix: "examprep-test:"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testBackend(t *testing.T, b Backend) {
	ctx := context.Background()

	// Absent key.
	v, ok, err := b.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("expected absent key, got ok=%v value=%q", ok, v)
	}

	// Set and get.
	if err := b.Set(ctx, KeyUsage, `{"requestsToday":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err = b.Get(ctx, KeyUsage)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != `{"requestsToday":1}` {
		t.Errorf("expected stored value, got ok=%v value=%q", ok, v)
	}

	// Overwrite.
	if err := b.Set(ctx, KeyUsage, "second"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, _, _ = b.Get(ctx, KeyUsage)
	if v != "second" {
		t.Errorf("expected 'second', got %q", v)
	}

	// Keys are independent.
	if err := b.Set(ctx, KeyAPIKey, "k"); err != nil {
		t.Fatalf("Set api key: %v", err)
	}
	if err := b.Remove(ctx, KeyUsage); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := b.Get(ctx, KeyUsage); ok {
		t.Error("expected usage key to be removed")
	}
	if v, ok, _ := b.Get(ctx, KeyAPIKey); !ok || v != "k" {
		t.Errorf("expected api key to survive, got ok=%v value=%q", ok, v)
	}

	// Removing an absent key is fine.
	if err := b.Remove(ctx, "never-set"); err != nil {
		t.Errorf("Remove absent: %v", err)
	}
}

func TestBackends(t *testing.T) {
	t.Run("memory", func(t *testing.T) { testBackend(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { testBackend(t, newTestSQLite(t)) })
	t.Run("redis", func(t *testing.T) { testBackend(t, newTestRedis(t)) })
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Kind: "memory"}, false},
		{"sqlite default", Config{DBPath: ":memory:"}, false},
		{"unknown", Config{Kind: "etcd"}, true},
		{"sqlite unreachable path", Config{Kind: "sqlite", DBPath: filepath.Join(t.TempDir(), "missing", "dir", "x.db")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && b != nil {
				t.Fatalf("Open() returned backend %#v with error", b)
			}
			if b != nil {
				b.Close()
			}
		})
	}
}

func TestNewRedisNilClient(t *testing.T) {
	if _, err := NewRedis(nil, RedisConfig{}); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestReadErrorUnwrap(t *testing.T) {
	cause := errors.New("bad json")
	err := error(&ReadError{Key: KeyUsage, Err: cause})
	if !errors.Is(err, cause) {
		t.Error("ReadError should unwrap to its cause")
	}
	var re *ReadError
	if !errors.As(err, &re) || re.Key != KeyUsage {
		t.Errorf("errors.As failed or wrong key: %+v", re)
	}
}
