package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/common/config"
)

// Job identifies one pending deployment.
type Job struct {
	TenantID  string `json:"tenantId"`
	Schema    string `json:"schema"`
	ServiceID string `json:"serviceId"`
}

// consumerGroup is the stream consumer group all workers share. Jobs
// enqueued while no worker is watching stay pending in the group and are
// delivered when one comes back.
const consumerGroup = "deploy-workers"

// Queue carries deployment jobs over a Redis stream. Enqueue returns as
// soon as the job is appended; the worker pool consumes the stream through
// a consumer group, so a job enqueued before any watcher starts is still
// delivered.
type Queue struct {
	logger   *zap.Logger
	client   redis.UniversalClient
	stream   string
	consumer string
}

func NewQueue(logger *zap.Logger, cfg config.QueueConfig) (*Queue, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	// start the group at the beginning of the stream so nothing enqueued
	// before the first worker is lost
	if err := client.XGroupCreateMkStream(ctx, cfg.Stream, consumerGroup, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	host, _ := os.Hostname()
	return &Queue{
		logger:   logger.Named("deploy.queue"),
		client:   client,
		stream:   cfg.Stream,
		consumer: fmt.Sprintf("%s-%d", host, os.Getpid()),
	}, nil
}

// Enqueue appends a job to the stream.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{"job": string(payload)},
	}).Result()
	if err != nil {
		return err
	}
	q.logger.Debug("deployment job enqueued",
		zap.String("service_id", job.ServiceID),
		zap.String("message_id", id))
	return nil
}

// Watch reads jobs through the consumer group until the context is
// cancelled. Messages are acknowledged once handed to the channel; a job
// that never reaches a consumer stays pending and is re-read on restart.
func (q *Queue) Watch(ctx context.Context) <-chan Job {
	ch := make(chan Job, 10)

	go func() {
		defer close(ch)

		for {
			if ctx.Err() != nil {
				return
			}
			streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: q.consumer,
				Streams:  []string{q.stream, ">"},
				Count:    1,
				Block:    1 * time.Second,
			}).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
					q.logger.Error("failed to read from stream", zap.Error(err))
				}
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					raw, exists := message.Values["job"]
					if !exists {
						q.ack(message.ID)
						continue
					}
					var job Job
					if err := json.Unmarshal([]byte(raw.(string)), &job); err != nil {
						q.logger.Error("failed to unmarshal job", zap.Error(err))
						q.ack(message.ID)
						continue
					}
					select {
					case ch <- job:
						q.ack(message.ID)
					case <-ctx.Done():
						// left pending; redelivered to the next watcher
						return
					}
				}
			}
		}
	}()

	return ch
}

// ack runs on its own context so shutdown does not leave a delivered job
// pending.
func (q *Queue) ack(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.client.XAck(ctx, q.stream, consumerGroup, messageID).Err(); err != nil {
		q.logger.Warn("failed to ack job", zap.String("message_id", messageID), zap.Error(err))
	}
}

// Close releases the Redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
