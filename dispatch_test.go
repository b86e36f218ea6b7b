package soapinvoker

import (
	"sync"
	"testing"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := NewLoop()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Dispatch(func() { got = append(got, i) })
	}
	l.Close()

	if len(got) != 100 {
		t.Fatalf("got %d runs, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("run %d was %d", i, v)
		}
	}
}

func TestLoopSerializesConcurrentDispatch(t *testing.T) {
	l := NewLoop()

	var (
		wg      sync.WaitGroup
		running int
		overlap bool
		count   int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Dispatch(func() {
					running++
					if running > 1 {
						overlap = true
					}
					count++
					running--
				})
			}
		}()
	}
	wg.Wait()
	l.Close()

	if overlap {
		t.Fatal("dispatched functions overlapped")
	}
	if count != 400 {
		t.Fatalf("got %d runs, want 400", count)
	}
}

func TestLoopAfterClose(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()

	ran := false
	l.Dispatch(func() { ran = true })
	if !ran {
		t.Fatal("dispatch after close must still run the function")
	}
}

func TestInline(t *testing.T) {
	ran := 0
	Inline.Dispatch(func() { ran++ })
	if ran != 1 {
		t.Fatalf("ran %d times", ran)
	}
}
