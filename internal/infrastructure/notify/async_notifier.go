package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/internal/usecase/interfaces"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

var (
	ErrBufferFull     = errors.New("notifier buffer full: event dropped")
	ErrNotifierClosed = errors.New("notifier closed")
)

// Sink is one delivery channel for committed status changes.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev entities.StatusChanged) error
}

// Recorder counts delivery outcomes. Nil-safe through noopRecorder.
type Recorder interface {
	NotificationDropped()
	NotificationFailed(sink string)
}

type Options struct {
	Buffer          int
	Workers         int
	DeliveryTimeout time.Duration
}

// AsyncNotifier queues events on bounded channels, one per worker goroutine.
// Events are sharded by order id, so one order's events are delivered in
// publish order. Publish never blocks: when a shard is full the event is dropped.
type AsyncNotifier struct {
	shards  []chan entities.StatusChanged
	sinks   []Sink
	log     *zap.Logger
	rec     Recorder
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ interfaces.INotifier = (*AsyncNotifier)(nil)

func NewAsyncNotifier(opts Options, logger *zap.Logger, rec Recorder, sinks ...Sink) *AsyncNotifier {
	if opts.Buffer < 1 {
		opts.Buffer = 256
	}
	if opts.Workers < 1 {
		opts.Workers = 2
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = noopRecorder{}
	}

	n := &AsyncNotifier{
		shards:  make([]chan entities.StatusChanged, opts.Workers),
		sinks:   sinks,
		log:     logger,
		rec:     rec,
		timeout: opts.DeliveryTimeout,
	}
	per := (opts.Buffer + opts.Workers - 1) / opts.Workers
	n.wg.Add(opts.Workers)
	for i := range n.shards {
		n.shards[i] = make(chan entities.StatusChanged, per)
		go n.work(n.shards[i])
	}
	return n
}

func (n *AsyncNotifier) shardFor(orderID string) chan entities.StatusChanged {
	return n.shards[xxhash.Sum64String(orderID)%uint64(len(n.shards))]
}

func (n *AsyncNotifier) Publish(_ context.Context, ev entities.StatusChanged) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}

	select {
	case n.shardFor(ev.OrderID) <- ev:
		return nil
	default:
		n.rec.NotificationDropped()
		n.log.Warn("notify.event.dropped",
			zap.String("order_id", ev.OrderID),
			zap.String("event_id", ev.EventID),
			zap.String("to", string(ev.NewStatus)),
		)
		return ErrBufferFull
	}
}

// Close stops intake and waits for queued events to drain or ctx to expire.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		for _, shard := range n.shards {
			close(shard)
		}
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *AsyncNotifier) work(events <-chan entities.StatusChanged) {
	defer n.wg.Done()
	for ev := range events {
		for _, s := range n.sinks {
			n.deliver(s, ev)
		}
	}
}

func (n *AsyncNotifier) deliver(s Sink, ev entities.StatusChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := s.Deliver(ctx, ev); err != nil {
		n.rec.NotificationFailed(s.Name())
		n.log.Warn("notify.delivery.failed",
			zap.String("sink", s.Name()),
			zap.String("order_id", ev.OrderID),
			zap.String("event_id", ev.EventID),
			zap.Error(err),
		)
	}
}

type noopRecorder struct{}

func (noopRecorder) NotificationDropped() {}
func (noopRecorder) NotificationFailed(string) {}
