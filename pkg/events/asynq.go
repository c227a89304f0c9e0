package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/docstreamio/docstream/pkg/logger"
)

// taskPrefix namespaces pipeline events within the asynq task-type space.
const taskPrefix = "event:"

// AsynqConfig configures the redis-backed bus.
type AsynqConfig struct {
	RedisAddr   string
	RedisDB     int
	Concurrency int
	MaxRetry    int
	RetryDelay  time.Duration
	TaskTimeout time.Duration
}

// AsynqBus delivers events through asynq's redis queues. Delivery is
// at-least-once and unordered across documents; asynq's retry policy is the
// external redelivery layer for failed handlers.
type AsynqBus struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	cfg    *AsynqConfig
	log    logger.Logger
}

func NewAsynqBus(cfg *AsynqConfig, log logger.Logger) *AsynqBus {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 10
	}
	if cfg.MaxRetry == 0 {
		cfg.MaxRetry = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Minute
	}
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = 10 * time.Minute
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n) * cfg.RetryDelay
		},
	})

	return &AsynqBus{
		client: asynq.NewClient(redisOpt),
		server: server,
		mux:    asynq.NewServeMux(),
		cfg:    cfg,
		log:    log,
	}
}

func (b *AsynqBus) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	task := asynq.NewTask(taskPrefix+routeKey(evt.Source, evt.DetailType), payload,
		asynq.MaxRetry(b.cfg.MaxRetry),
		asynq.Timeout(b.cfg.TaskTimeout),
	)
	if _, err := b.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	b.log.Info("Event published",
		logger.String("source", evt.Source),
		logger.String("detailType", evt.DetailType),
	)
	return nil
}

func (b *AsynqBus) Subscribe(source, detailType string, h Handler) {
	b.mux.HandleFunc(taskPrefix+routeKey(source, detailType), func(ctx context.Context, t *asynq.Task) error {
		var evt Event
		if err := json.Unmarshal(t.Payload(), &evt); err != nil {
			b.log.Error("Failed to unmarshal event",
				logger.Error(err),
				logger.String("payload", string(t.Payload())),
			)
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return h(ctx, evt)
	})
}

// Run serves subscriptions until ctx is cancelled. Subscribe must not be
// called after Run.
func (b *AsynqBus) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		b.server.Shutdown()
	}()
	return b.server.Run(b.mux)
}

func (b *AsynqBus) Close() error {
	return b.client.Close()
}
