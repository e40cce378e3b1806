// Package redis implements db.Store over rueidis. The same store serves
// Redis and Valkey since corpus access only needs core hash and string commands.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/tourdex/internal/db"
)

var _ db.Store = (*Store)(nil)

// DefaultPipelineSize caps the number of commands sent in one DoMulti batch.
const DefaultPipelineSize = 500

// Config holds connection parameters for a Redis/Valkey store.
type Config struct {
	Addrs        []string
	Username     string
	Password     string
	DB           int
	PipelineSize int
}

// Store implements db.Store via rueidis.
type Store struct {
	client   rueidis.Client
	pipeline int
}

// NewStore connects to Redis or Valkey.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg.PipelineSize), nil
}

func newStore(c rueidis.Client, pipeline int) *Store {
	if pipeline <= 0 {
		pipeline = DefaultPipelineSize
	}
	return &Store{client: c, pipeline: pipeline}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// doChunked sends cmds in DoMulti batches of at most s.pipeline commands.
// onResult is called for every result in command order; the first error stops the run.
func (s *Store) doChunked(
	ctx context.Context, cmds []rueidis.Completed, onResult func(i int, res rueidis.RedisResult) error,
) error {
	for start := 0; start < len(cmds); start += s.pipeline {
		end := min(start+s.pipeline, len(cmds))
		results := s.client.DoMulti(ctx, cmds[start:end]...)
		for j, res := range results {
			if err := onResult(start+j, res); err != nil {
				return err
			}
		}
	}
	return nil
}
