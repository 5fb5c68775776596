package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Each document is one string key.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = DefaultConfig().DialTimeout
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, documentKey(s.cfg.KeyPrefix, path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return data, nil
}

// Save writes the document and its save time in one transaction, so a
// failed save leaves the previous value in place
func (s *Storage) Save(ctx context.Context, path string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, documentKey(s.cfg.KeyPrefix, path), data, 0)
	pipe.Set(ctx, savedAtKey(s.cfg.KeyPrefix, path), time.Now().UTC().Format(time.RFC3339), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// SavedAt returns when a document was last saved
func (s *Storage) SavedAt(ctx context.Context, path string) (time.Time, error) {
	v, err := s.client.Get(ctx, savedAtKey(s.cfg.KeyPrefix, path)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, model.ErrDocumentNotFound
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}
