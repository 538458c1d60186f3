package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"career_coach_backend/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrDispatcherClosed = errors.New("event dispatcher closed")
	ErrQueueFull        = errors.New("event queue full")
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 5 * time.Second
)

type message struct {
	routingKey string
	payload    any
}

// Dispatcher 异步发布事件，单个 goroutine 按入队顺序投递
type Dispatcher struct {
	next    Publisher
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

func NewDispatcher(next Publisher, size int) *Dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	d := &Dispatcher{
		next:    next,
		timeout: defaultPublishTimeout,
		queue:   make(chan message, size),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for m := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.Publish(ctx, m.routingKey, m.payload); err != nil {
			logger.Log.Warn("Failed to publish event", zap.String("routingKey", m.routingKey), zap.Error(err))
		}
		cancel()
	}
}

// Publish 只负责入队，队列满时丢弃并返回 ErrQueueFull
func (d *Dispatcher) Publish(ctx context.Context, routingKey string, payload any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- message{routingKey: routingKey, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 投递完队列中剩余的事件后关闭下游
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return d.next.Close()
}
