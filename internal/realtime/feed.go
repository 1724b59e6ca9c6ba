package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is one change notification. Subscribers treat every event as
// "refetch everything for this tenant". Coarse invalidation is the
// contract, not incremental patching.
type Event struct {
	Table     string    `json:"table"`
	CompanyID string    `json:"company_id"`
	Action    string    `json:"action"` // insert, update, delete
	Timestamp time.Time `json:"timestamp"`
}

// Watched table names published on the feed.
const (
	TableProducts      = "products"
	TableSales         = "sales"
	TableProfiles      = "profiles"
	TableSubscriptions = "subscriptions"
	TableSupport       = "support_messages"
	TableActivityLogs  = "activity_logs"
)

// Feed is the realtime change feed, keyed by table and tenant. It carries
// no payloads beyond the event envelope; ordering across channels is not
// guaranteed and consumers must not depend on it.
type Feed interface {
	Publish(ctx context.Context, table, companyID, action string)
	Subscribe(ctx context.Context, companyID string, tables ...string) (<-chan Event, func())
}

type redisFeed struct {
	client *redis.Client
}

// NewRedisClient dials a dedicated connection for pub/sub. The feed keeps
// its own client because subscribed connections cannot serve other commands.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsed := addr
	if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
		parsed = hostPort
	}
	return redis.NewClient(&redis.Options{
		Addr:     parsed,
		Password: password,
		DB:       db,
	})
}

func NewRedisFeed(client *redis.Client) Feed {
	return &redisFeed{client: client}
}

func channelName(table, companyID string) string {
	return fmt.Sprintf("stockmaster:feed:%s:%s", table, companyID)
}

// Publish is best effort: a lost notification only delays a refetch until
// the next poll, so failures are logged and swallowed.
func (f *redisFeed) Publish(ctx context.Context, table, companyID, action string) {
	event := Event{
		Table:     table,
		CompanyID: companyID,
		Action:    action,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("WARN: feed marshal failed for %s/%s: %v", table, companyID, err)
		return
	}
	if err := f.client.Publish(ctx, channelName(table, companyID), data).Err(); err != nil {
		log.Printf("WARN: feed publish failed for %s/%s: %v", table, companyID, err)
	}
}

// Subscribe opens a subscription for one tenant across the given tables and
// returns the event stream plus a teardown func. The teardown must run on
// logout or tenant switch so events for a stale tenant are never acted on.
func (f *redisFeed) Subscribe(ctx context.Context, companyID string, tables ...string) (<-chan Event, func()) {
	channels := make([]string, 0, len(tables))
	for _, table := range tables {
		channels = append(channels, channelName(table, companyID))
	}

	pubsub := f.client.Subscribe(ctx, channels...)
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("WARN: feed decode failed: %v", err)
				continue
			}
			select {
			case events <- event:
			default:
				// Slow consumer: drop, the next poll will catch up.
			}
		}
	}()

	teardown := func() {
		if err := pubsub.Close(); err != nil {
			log.Printf("WARN: feed unsubscribe failed for %s: %v", companyID, err)
		}
	}
	return events, teardown
}
