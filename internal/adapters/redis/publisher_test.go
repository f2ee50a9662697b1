package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/adjuster/internal/adapters/redis"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisPublisher_Contract(t *testing.T) {
	_, client := setup(t)

	publisher := redis.NewFromClient(client)
	ports.RunSnapshotPublisherContract(t, publisher)
}

func TestRedisPublisher_AnnouncesOnChannel(t *testing.T) {
	_, client := setup(t)

	publisher := redis.NewFromClient(client, redis.WithChannel("claims:live"))

	sub := client.Subscribe(context.Background(), "claims:live")
	t.Cleanup(func() { _ = sub.Close() })
	// Make sure the subscription is active before publishing.
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	session := domain.NewSession()
	session.Step = domain.StepAnalyzing
	if err := publisher.Publish(context.Background(), session); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got domain.Session
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("channel payload is not a session: %v", err)
		}
		if got.Step != domain.StepAnalyzing {
			t.Errorf("announced step = %q, want analyzing", got.Step)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no announcement on the channel")
	}
}

func TestRedisPublisher_CustomKeyAndTTL(t *testing.T) {
	mr, client := setup(t)

	publisher := redis.NewFromClient(client,
		redis.WithKey("claims:mirror"),
		redis.WithTTL(time.Minute),
	)

	if err := publisher.Publish(context.Background(), domain.NewSession()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if !mr.Exists("claims:mirror") {
		t.Fatal("snapshot not mirrored under the configured key")
	}
	if ttl := mr.TTL("claims:mirror"); ttl != time.Minute {
		t.Errorf("mirror TTL = %v, want 1m", ttl)
	}
}
