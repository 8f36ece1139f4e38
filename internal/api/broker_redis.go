package api

import (
	"context"
	"encoding/json"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type EventBroker interface {
	Subscribe(customerID string) chan SSEEvent
	Unsubscribe(customerID string, ch chan SSEEvent)
	Publish(customerID string, evt SSEEvent)
}

// RedisBroker implements EventBroker over Redis Pub/Sub so streams work when
// the API runs as multiple replicas.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker() (*RedisBroker, error) {
	opt, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt)}, nil
}

func (b *RedisBroker) Subscribe(customerID string) chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(customerID))
	// initial consume to ensure subscription
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt SSEEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(customerID string, ch chan SSEEvent) {
	// closing the channel suffices; the goroutine exits when ps.Channel closes
	close(ch)
}

func (b *RedisBroker) Publish(customerID string, evt SSEEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(customerID), data).Err()
}

func (b *RedisBroker) chanName(customerID string) string { return "customer:" + customerID }
