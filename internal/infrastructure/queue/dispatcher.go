package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher runs client event loops on a fixed set of workers. Each key is
// hashed to one worker, so the functions posted for a key run in order and
// never in parallel.
type Dispatcher struct {
	workers []chan func()
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		workers: make([]chan func(), numWorkers),
		log:     logger.Component(log, "dispatcher"),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := range d.workers {
		d.workers[i] = make(chan func(), channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.once.Do(func() {
		go func() {
			select {
			case <-ctx.Done():
				d.cancel()
			case <-d.ctx.Done():
			}
		}()
		for i, ch := range d.workers {
			d.wg.Add(1)
			go d.runWorker(i, ch)
		}
	})
}

// Stop cancels the workers and in-flight work and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}

// Post queues fn on the worker responsible for key. It blocks while that
// worker's queue is full and drops fn once the dispatcher is stopped.
func (d *Dispatcher) Post(key string, fn func()) {
	idx := d.shardIndex(key)
	select {
	case d.workers[idx] <- fn:
		metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-d.ctx.Done():
	}
}

// Go runs work in its own goroutine and posts the continuation it returns
// to the worker responsible for key.
func (d *Dispatcher) Go(key string, work func(ctx context.Context) func()) {
	if d.ctx.Err() != nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		next := work(d.ctx)
		if next == nil || d.ctx.Err() != nil {
			return
		}
		d.Post(key, next)
	}()
}

// Scheduler returns the event loop of key.
func (d *Dispatcher) Scheduler(key string) ports.Scheduler {
	return keyScheduler{d: d, key: key}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan func()) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-d.ctx.Done():
			return
		case fn := <-ch:
			metrics.DispatchQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.run(id, fn)
		}
	}
}

func (d *Dispatcher) run(id int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Int("worker_id", id).
				Msg("event loop function panicked")
		}
	}()
	fn()
}

type keyScheduler struct {
	d   *Dispatcher
	key string
}

func (s keyScheduler) Post(fn func()) { s.d.Post(s.key, fn) }

func (s keyScheduler) Go(work func(ctx context.Context) func()) { s.d.Go(s.key, work) }
