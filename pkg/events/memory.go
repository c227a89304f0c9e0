package events

import (
	"context"
	"sync"

	"github.com/docstreamio/docstream/pkg/logger"
)

// MemoryBus is an in-process bus for tests and single-binary runs. Each
// publish dispatches to subscribers on fresh goroutines, so delivery is
// asynchronous like the redis bus but without redelivery on failure; handler
// errors are retained for inspection instead.
type MemoryBus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	errs     []error
	wg       sync.WaitGroup
	log      logger.Logger
}

func NewMemoryBus(log logger.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

func (b *MemoryBus) Subscribe(source, detailType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := routeKey(source, detailType)
	b.handlers[key] = append(b.handlers[key], h)
}

func (b *MemoryBus) Publish(ctx context.Context, evt Event) error {
	b.mu.Lock()
	subscribed := append([]Handler(nil), b.handlers[routeKey(evt.Source, evt.DetailType)]...)
	b.mu.Unlock()

	for _, h := range subscribed {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := h(ctx, evt); err != nil {
				b.log.Error("Event handler failed",
					logger.String("source", evt.Source),
					logger.String("detailType", evt.DetailType),
					logger.Error(err),
				)
				b.mu.Lock()
				b.errs = append(b.errs, err)
				b.mu.Unlock()
			}
		}()
	}
	return nil
}

// Wait blocks until every dispatched handler has returned, including
// handlers spawned by publishes made during the wait.
func (b *MemoryBus) Wait() {
	b.wg.Wait()
}

// Errors returns handler failures observed so far.
func (b *MemoryBus) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]error(nil), b.errs...)
}
