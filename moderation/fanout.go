package moderation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPoolClosed is returned by Submit once Shutdown has begun.
var ErrPoolClosed = errors.New("fan-out pool is shut down")

// FanoutPool runs verdict side-effect tasks on a fixed number of workers.
// Tasks sharing a key (content id) run one at a time in submission order;
// tasks for different keys run concurrently. Submission applies backpressure
// through the bounded feeder channel once the per-key queues are saturated.
type FanoutPool struct {
	workers int

	feeder chan *fanoutTask
	out    chan struct{}

	lk         sync.Mutex
	active     map[string][]*fanoutTask
	closed     bool
	submitters sync.WaitGroup

	log *slog.Logger
}

type fanoutTask struct {
	key     string
	fn      func(context.Context)
	control string
}

var _ TaskRunner = (*FanoutPool)(nil)

func NewFanoutPool(workers, queueDepth int, logger *slog.Logger) *FanoutPool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &FanoutPool{
		workers: workers,
		feeder:  make(chan *fanoutTask, queueDepth),
		out:     make(chan struct{}),
		active:  make(map[string][]*fanoutTask),
		log:     logger.With("system", "fanout"),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	fanoutWorkersActive.Set(float64(workers))
	return p
}

func (p *FanoutPool) Submit(ctx context.Context, key string, fn func(context.Context)) error {
	t := &fanoutTask{key: key, fn: fn}

	p.lk.Lock()
	if p.closed {
		p.lk.Unlock()
		return ErrPoolClosed
	}
	if a, ok := p.active[key]; ok {
		p.active[key] = append(a, t)
		p.lk.Unlock()
		fanoutTasksQueued.Inc()
		return nil
	}
	p.active[key] = []*fanoutTask{}
	p.submitters.Add(1)
	p.lk.Unlock()
	defer p.submitters.Done()

	select {
	case p.feeder <- t:
		fanoutTasksQueued.Inc()
		return nil
	case <-ctx.Done():
		p.lk.Lock()
		rem := p.active[key]
		delete(p.active, key)
		p.lk.Unlock()
		if len(rem) > 0 {
			p.log.Error("dropping accepted tasks after cancelled submit", "key", key, "count", len(rem))
		}
		return ctx.Err()
	}
}

// Shutdown drains queued tasks and stops all workers. Submissions arriving
// after Shutdown has begun are rejected with ErrPoolClosed; the feeder is
// only closed once in-flight submitters have finished.
func (p *FanoutPool) Shutdown() {
	p.lk.Lock()
	if p.closed {
		p.lk.Unlock()
		return
	}
	p.closed = true
	p.lk.Unlock()

	p.submitters.Wait()

	p.log.Info("shutting down fan-out pool")
	for i := 0; i < p.workers; i++ {
		p.feeder <- &fanoutTask{control: "stop"}
	}
	close(p.feeder)
	for i := 0; i < p.workers; i++ {
		<-p.out
	}
	fanoutWorkersActive.Set(0)
	p.log.Info("fan-out pool shutdown complete")
}

// ShutdownContext drains the pool like Shutdown, but gives up waiting once
// ctx expires. The drain keeps running in the background either way.
func (p *FanoutPool) ShutdownContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *FanoutPool) worker() {
	for work := range p.feeder {
		for work != nil {
			if work.control == "stop" {
				p.out <- struct{}{}
				return
			}

			work.fn(context.Background())
			fanoutTasksProcessed.Inc()

			p.lk.Lock()
			rem, ok := p.active[work.key]
			if !ok {
				p.log.Error("fan-out worker finished a task with no active entry", "key", work.key)
			}
			if len(rem) == 0 {
				delete(p.active, work.key)
				work = nil
			} else {
				work = rem[0]
				p.active[work.key] = rem[1:]
			}
			p.lk.Unlock()
		}
	}
}
