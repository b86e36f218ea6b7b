package soapinvoker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsTasks(t *testing.T) {
	p := newWorkerPool(3)

	var n atomic.Int32
	for i := 0; i < 20; i++ {
		if err := p.submit(task{run: func() { n.Add(1) }}); err != nil {
			t.Fatal(err)
		}
	}
	p.shutdown()
	p.wait()

	if got := n.Load(); got != 20 {
		t.Fatalf("ran %d tasks, want 20", got)
	}
	if err := p.submit(task{run: func() {}}); !errors.Is(err, errPoolStopped) {
		t.Fatalf("got %v, want errPoolStopped", err)
	}
}

func TestPoolShutdownNowReturnsQueued(t *testing.T) {
	p := newWorkerPool(1)

	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	_ = p.submit(task{run: func() {
		close(started)
		<-release
		close(finished)
	}})
	<-started

	for i := 0; i < 3; i++ {
		_ = p.submit(task{run: func() { t.Error("queued task ran after shutdownNow") }})
	}
	p.mu.Lock()
	queued := len(p.queue)
	p.mu.Unlock()
	if queued != 3 {
		t.Fatalf("got %d queued, want 3", queued)
	}

	dropped := p.shutdownNow()
	if len(dropped) != 3 {
		t.Fatalf("got %d dropped tasks, want 3", len(dropped))
	}
	if p.usable() {
		t.Fatal("stopped pool reported usable")
	}

	close(release)
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("running task was interrupted")
	}
	p.wait()
}
