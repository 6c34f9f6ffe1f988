package counter

import (
	"context"
	"strconv"

	"github.com/CodeFuMaster/TrustLoops/internal/pkg/cache"
)

const (
	webhookEventsKey       = "billing:counters:webhook_events"
	webhookFailuresKey     = "billing:counters:webhook_failures"
	notificationsSentKey   = "notify:counters:sent"
	notificationsFailedKey = "notify:counters:failed"
)

// AddWebhookEvent increments the processed counter for a webhook event name in Redis
func AddWebhookEvent(eventName string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookEventsKey, eventName, 1).Err()
}

// AddWebhookFailure increments the failure counter for a webhook event name in Redis
func AddWebhookFailure(eventName string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookFailuresKey, eventName, 1).Err()
}

// AddNotificationSent increments the sent-notification counter
func AddNotificationSent() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, notificationsSentKey).Err()
}

// AddNotificationFailed increments the failed-notification counter
func AddNotificationFailed() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, notificationsFailedKey).Err()
}

// WebhookEventCounts returns per-event processed counts
func WebhookEventCounts() (map[string]int64, error) {
	return readHash(webhookEventsKey)
}

// WebhookFailureCounts returns per-event failure counts
func WebhookFailureCounts() (map[string]int64, error) {
	return readHash(webhookFailuresKey)
}

// NotificationCounts returns total sent and failed notification counts
func NotificationCounts() (sent int64, failed int64, err error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	sent, err = rdb.Get(ctx, notificationsSentKey).Int64()
	if err != nil && err.Error() != "redis: nil" {
		return 0, 0, err
	}
	failed, err = rdb.Get(ctx, notificationsFailedKey).Int64()
	if err != nil && err.Error() != "redis: nil" {
		return sent, 0, err
	}
	return sent, failed, nil
}

func readHash(key string) (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			continue
		}
		counts[field] = n
	}
	return counts, nil
}
