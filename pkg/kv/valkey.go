package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// ValkeyConfig describes a Valkey (or Redis) endpoint. Addr is either
// host:port or a redis:// / rediss:// URL; Password and DB, when set,
// override whatever the URL carries.
type ValkeyConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func (c ValkeyConfig) options() (*redis.Options, error) {
	var opts *redis.Options
	if strings.Contains(c.Addr, "://") {
		parsed, err := redis.ParseURL(c.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid valkey url: %w", err)
		}
		opts = parsed
	} else {
		if c.Addr == "" {
			return nil, errors.New("valkey address is empty")
		}
		opts = &redis.Options{Addr: c.Addr}
	}

	if c.Password != "" {
		opts.Password = c.Password
	}
	if c.DB != 0 {
		opts.DB = c.DB
	}
	opts.DialTimeout = c.DialTimeout
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	return opts, nil
}

// ValkeyStore keeps config documents in Valkey under their ConfigKey.
type ValkeyStore struct {
	client *redis.Client
}

// NewValkeyStore connects and pings the server; ctx bounds the ping.
func NewValkeyStore(ctx context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}
	return &ValkeyStore{client: client}, nil
}

// Set writes value under key. A zero ttl keeps the key forever; negative
// ttls are rejected since go-redis reads -1 as "keep the existing TTL".
func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("negative ttl %s for %s", ttl, key)
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

func (s *ValkeyStore) Close() error {
	return s.client.Close()
}

var _ Store = (*ValkeyStore)(nil)
