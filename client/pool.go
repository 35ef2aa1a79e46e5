package client

import (
	"context"
	"sync"
)

// operation is one unit of remote work queued for a pool worker.
type operation func(ctx context.Context)

// operationPool bounds how many submitted operations run against the
// repository at once. Workers can be scaled up or down while the pool runs.
type operationPool struct {
	ops chan operation

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	workers     map[int]chan struct{}
	workerCount int
	nextID      int
	wg          sync.WaitGroup
}

func newOperationPool(ctx context.Context, queueDepth int) *operationPool {
	ctx, cancel := context.WithCancel(ctx)
	return &operationPool{
		ops:     make(chan operation, queueDepth),
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[int]chan struct{}),
	}
}

// submit queues an operation, blocking while the queue is full.
func (p *operationPool) submit(ctx context.Context, op operation) error {
	// A stopped pool refuses work even while queue space remains.
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.ops <- op:
		return nil
	}
}

// setWorkerCount scales the number of workers up or down gracefully.
func (p *operationPool) setWorkerCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.workerCount < count {
		p.addWorker()
	}
	for p.workerCount > count {
		p.removeWorker()
	}
}

func (p *operationPool) addWorker() {
	quitChan := make(chan struct{})
	id := p.nextID
	p.nextID++
	p.workers[id] = quitChan
	p.workerCount++
	p.wg.Add(1)

	go func(quit chan struct{}) {
		defer p.wg.Done()
		for {
			// Prioritize quit and cancellation over queued work.
			select {
			case <-quit:
				return
			case <-p.ctx.Done():
				return
			default:
			}

			select {
			case <-quit:
				return
			case <-p.ctx.Done():
				return
			case op, ok := <-p.ops:
				if !ok {
					return
				}
				op(p.ctx)
			}
		}
	}(quitChan)
}

func (p *operationPool) removeWorker() {
	// Decommission an arbitrary worker; it finishes its current operation.
	for id, quit := range p.workers {
		close(quit)
		delete(p.workers, id)
		p.workerCount--
		return
	}
}

// stop terminates all workers and waits for them to exit. Operations still
// queued are dropped.
func (p *operationPool) stop() {
	p.cancel()
	p.wg.Wait()
}
