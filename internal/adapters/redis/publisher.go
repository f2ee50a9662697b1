// Package redis mirrors the live claim session into Redis so dashboards
// and sibling processes can observe it without talking to the workflow.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/adjuster/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Publisher implements ports.SnapshotPublisher using Redis.
// Every snapshot overwrites one well-known key and is additionally fanned
// out on a pub/sub channel for push-style consumers.
type Publisher struct {
	client  *backend.Client
	key     string
	channel string
	ttl     time.Duration
}

type Option func(*Publisher)

// WithKey sets the key the snapshot is mirrored under.
func WithKey(key string) Option {
	return func(p *Publisher) {
		p.key = key
	}
}

// WithChannel sets the pub/sub channel snapshots are announced on.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		p.channel = channel
	}
}

// WithTTL sets an expiration on the mirrored snapshot, so the mirror
// disappears on its own if the host dies mid-session.
func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.ttl = ttl
	}
}

// New creates a new Redis publisher with options.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	publisher := &Publisher{
		client:  client,
		key:     "adjuster:session",
		channel: "adjuster:updates",
		ttl:     0, // No expiration by default
	}

	for _, opt := range opts {
		opt(publisher)
	}

	return publisher
}

// Publish mirrors the snapshot and announces it on the channel.
func (p *Publisher) Publish(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, p.key, data, p.ttl)
	pipe.Publish(ctx, p.channel, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Load retrieves the mirrored snapshot.
func (p *Publisher) Load(ctx context.Context) (*domain.Session, error) {
	val, err := p.client.Get(ctx, p.key).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// Clear removes the mirrored snapshot.
func (p *Publisher) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key).Err()
}

// Close closes the redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
