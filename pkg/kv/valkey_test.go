package kv

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestValkeyConfigOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ValkeyConfig
		addr     string
		password string
		db       int
		tls      bool
		timeout  time.Duration
	}{
		{"host and port", ValkeyConfig{Addr: "localhost:6379"}, "localhost:6379", "", 0, false, defaultDialTimeout},
		{"explicit fields", ValkeyConfig{Addr: "cache:6379", Password: "pw", DB: 3, DialTimeout: time.Second}, "cache:6379", "pw", 3, false, time.Second},
		{"url", ValkeyConfig{Addr: "redis://:secret@cache:6380/2"}, "cache:6380", "secret", 2, false, defaultDialTimeout},
		{"tls url", ValkeyConfig{Addr: "rediss://cache:6380"}, "cache:6380", "", 0, true, defaultDialTimeout},
		{"fields override url", ValkeyConfig{Addr: "redis://:secret@cache:6380/2", Password: "other", DB: 5}, "cache:6380", "other", 5, false, defaultDialTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.cfg.options()
			if err != nil {
				t.Fatalf("options() error = %v", err)
			}
			if opts.Addr != tt.addr || opts.Password != tt.password || opts.DB != tt.db {
				t.Errorf("options() = addr %q password %q db %d", opts.Addr, opts.Password, opts.DB)
			}
			if (opts.TLSConfig != nil) != tt.tls {
				t.Errorf("TLSConfig set = %v, want %v", opts.TLSConfig != nil, tt.tls)
			}
			if opts.DialTimeout != tt.timeout {
				t.Errorf("DialTimeout = %s, want %s", opts.DialTimeout, tt.timeout)
			}
		})
	}
}

func TestValkeyConfigOptionsErrors(t *testing.T) {
	for _, addr := range []string{"", "http://cache:6379", "redis://cache:6379/notadb"} {
		if _, err := (ValkeyConfig{Addr: addr}).options(); err == nil {
			t.Errorf("options() with %q should fail", addr)
		}
	}
}

// Runs against a live server when VALKEY_ADDR is set, e.g. in CI with a
// valkey service container.
func TestValkeyStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		t.Skip("VALKEY_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewValkeyStore(ctx, ValkeyConfig{Addr: addr, Password: os.Getenv("VALKEY_PASSWORD")})
	if err != nil {
		t.Fatalf("NewValkeyStore() error = %v", err)
	}
	defer store.Close()

	key := ConfigKey("test-" + uuid.NewString())

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() before Set = %v, want ErrNotFound", err)
	}
	if err := store.Set(ctx, key, []byte("total_round: 3\n"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "total_round: 3\n" {
		t.Errorf("Get() = %q", got)
	}
	if err := store.Set(ctx, key, []byte("x"), -time.Second); err == nil {
		t.Error("Set() with negative ttl should fail")
	}
}

func TestNewValkeyStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// port 1 on loopback refuses connections
	_, err := NewValkeyStore(ctx, ValkeyConfig{Addr: "127.0.0.1:1", DialTimeout: 500 * time.Millisecond})
	if err == nil {
		t.Fatal("expected connection error")
	}
}
