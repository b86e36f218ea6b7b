package soapinvoker

import (
	"errors"
	"sync"
)

var errPoolStopped = errors.New("pool stopped")

type poolState int

const (
	poolRunning poolState = iota
	// poolShutdown accepts no new tasks but runs the queued ones
	poolShutdown
	// poolStopped drops the queue; running tasks still finish
	poolStopped
)

// task is one unit of work. abort is called instead of run when the task is dropped
// from the queue.
type task struct {
	run   func()
	abort func(error)
}

// workerPool runs tasks on a fixed number of goroutines fed by an unbounded FIFO queue.
type workerPool struct {
	size int

	mu    sync.Mutex
	cond  *sync.Cond
	queue []task
	state poolState

	wg sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	p := &workerPool{size: size}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}

	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && p.state == poolRunning {
			p.cond.Wait()
		}
		if len(p.queue) == 0 || p.state == poolStopped {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = task{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		t.run()
	}
}

func (p *workerPool) submit(t task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != poolRunning {
		return errPoolStopped
	}

	p.queue = append(p.queue, t)
	p.cond.Signal()

	return nil
}

func (p *workerPool) usable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state == poolRunning
}

// shutdown lets the workers drain the queue and exit.
func (p *workerPool) shutdown() {
	p.mu.Lock()
	if p.state == poolRunning {
		p.state = poolShutdown
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}

// shutdownNow stops the workers after their current task and returns the tasks that never started.
func (p *workerPool) shutdownNow() []task {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = poolStopped
	pending := p.queue
	p.queue = nil
	p.cond.Broadcast()

	return pending
}

func (p *workerPool) wait() {
	p.wg.Wait()
}
