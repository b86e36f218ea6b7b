package soapinvoker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// DefaultThreadSize is the number of workers used when Options.ThreadSize is not set
const DefaultThreadSize = 5

// Options configures an Invoker
type Options struct {
	// ThreadSize is the number of calls running at the same time. Defaults to DefaultThreadSize.
	ThreadSize int

	// DotNet is the initial value of the .NET compatibility flag, see SetIsDotNet
	DotNet bool

	// Client configures the default transport. Ignored when Transport is set.
	Client ClientOpts

	// Transport performs the SOAP exchanges. Defaults to NewClient(Client).
	Transport Transport

	// Dispatcher is the context callbacks are delivered on. Defaults to a Loop owned by
	// the Invoker and stopped by Close.
	Dispatcher Dispatcher

	// Logger receives retry and debug output. Defaults to the standard logger.
	Logger Logger

	// Registerer, when set, gets the invoker metrics registered on it
	Registerer prometheus.Registerer

	// RateLimit caps outgoing requests per second, retries included. Zero means no limit.
	RateLimit float64

	// RateBurst is the burst allowed above RateLimit. Defaults to 1.
	RateBurst int
}

// Invoker runs SOAP calls on a pool of workers and reports every call exactly once,
// either through a Callback on its Dispatcher or through the returned *Call.
// It is supposed to be created once and shared.
type Invoker struct {
	transport  Transport
	dispatcher Dispatcher
	loop       *Loop
	logger     Logger
	metrics    *metrics
	limiter    *rate.Limiter

	dotNet atomic.Bool

	mu         sync.Mutex
	pool       *workerPool
	draining   sync.WaitGroup
	threadSize int
	closed     bool
}

// New creates an Invoker. The worker pool is started on the first call.
func New(opts Options) *Invoker {
	inv := &Invoker{
		transport:  opts.Transport,
		dispatcher: opts.Dispatcher,
		logger:     loggerOrDefault(opts.Logger),
		metrics:    newMetrics(opts.Registerer),
		threadSize: opts.ThreadSize,
	}

	if inv.threadSize < 1 {
		inv.threadSize = DefaultThreadSize
	}

	if inv.transport == nil {
		clientOpts := opts.Client
		if clientOpts.Logger == nil {
			clientOpts.Logger = inv.logger
		}
		inv.transport = NewClient(clientOpts)
	}

	if inv.dispatcher == nil {
		inv.loop = NewLoop()
		inv.dispatcher = inv.loop
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		inv.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	inv.dotNet.Store(opts.DotNet)

	return inv
}

// Call invokes method of the service at url and reports the outcome to cb on the
// Dispatcher. It returns immediately; errors are only reported through cb.OnError.
// params may be nil.
func (inv *Invoker) Call(url, namespace, method string, params map[string]string, cb Callback) {
	ep := Endpoint{URL: url, Namespace: namespace, Method: method}

	inv.start(ep, params, func(c *Call) {
		inv.dispatcher.Dispatch(func() {
			if c.Error != nil {
				cb.OnError(c.Error)
				return
			}
			cb.OnSuccess(c.Response)
		})
	})
}

// Go invokes the method asynchronously and returns the *Call, resolved once on Done.
// The Dispatcher is not involved.
func (inv *Invoker) Go(ep Endpoint, params map[string]string) *Call {
	return inv.start(ep, params, nil)
}

func (inv *Invoker) start(ep Endpoint, params map[string]string, notify func(*Call)) *Call {
	c := newCall(ep, params, inv.dotNet.Load())
	c.notify = notify

	if !ep.valid() {
		inv.resolve(c, nil, ErrInvalidEndpoint)
		return c
	}

	if err := c.request.Validate(); err != nil {
		inv.resolve(c, nil, err)
		return c
	}

	inv.mu.Lock()
	if inv.closed {
		inv.mu.Unlock()
		inv.resolve(c, nil, ErrClosed)
		return c
	}
	if inv.pool == nil || !inv.pool.usable() {
		inv.pool = newWorkerPool(inv.threadSize)
	}
	err := inv.pool.submit(task{
		run:   func() { inv.run(c) },
		abort: func(err error) { inv.resolve(c, nil, err) },
	})
	inv.mu.Unlock()

	if err != nil {
		inv.resolve(c, nil, err)
	}

	return c
}

// run executes the call on a worker. invoke picks the single outcome.
func (inv *Invoker) run(c *Call) {
	resp, err := inv.invoke(c)
	if err != nil {
		resp = nil
	}
	inv.resolve(c, resp, err)
}

func (inv *Invoker) invoke(c *Call) (*Response, error) {
	resp, err := inv.attempt(c, "")
	if err == nil {
		return resp, nil
	}

	if !retryable(err) {
		return nil, err
	}

	action := c.Endpoint.action()
	inv.logger.Printf("soapinvoker: call %s to %s failed, retrying with SOAPAction %q: %v", c.ID, c.Endpoint.URL, action, err)
	inv.metrics.retries.Inc()

	return inv.attempt(c, action)
}

func (inv *Invoker) attempt(c *Call, soapAction string) (*Response, error) {
	ctx := context.Background()

	if inv.limiter != nil {
		if err := inv.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.Attempts++
	start := time.Now()
	resp, err := inv.transport.Query(ctx, c.Endpoint.URL, soapAction, c.request)
	inv.metrics.duration.Observe(time.Since(start).Seconds())

	return resp, err
}

func (inv *Invoker) resolve(c *Call, resp *Response, err error) {
	inv.metrics.resolved(err)
	c.finish(resp, err)
}

// SetThreadSize replaces the worker pool with one of n workers. Calls still queued on
// the old pool are reported with ErrDiscarded; running calls complete normally.
func (inv *Invoker) SetThreadSize(n int) error {
	if n < 1 {
		return ErrInvalidThreadSize
	}

	inv.mu.Lock()
	if inv.closed {
		inv.mu.Unlock()
		return ErrClosed
	}
	old := inv.pool
	inv.threadSize = n
	inv.pool = newWorkerPool(n)
	if old != nil {
		inv.draining.Add(1)
	}
	inv.mu.Unlock()

	if old != nil {
		dropped := old.shutdownNow()
		go func() {
			old.wait()
			inv.draining.Done()
		}()

		if len(dropped) > 0 {
			inv.logger.Printf("soapinvoker: resized pool to %d workers, discarded %d queued calls", n, len(dropped))
		}
		for _, t := range dropped {
			t.abort(ErrDiscarded)
		}
	}

	return nil
}

// ThreadSize returns the size of the current worker pool
func (inv *Invoker) ThreadSize() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.threadSize
}

// SetIsDotNet switches the .NET compatibility encoding for calls made from now on
func (inv *Invoker) SetIsDotNet(flag bool) {
	inv.dotNet.Store(flag)
}

// IsDotNet reports the current .NET compatibility flag
func (inv *Invoker) IsDotNet() bool {
	return inv.dotNet.Load()
}

// Close rejects new calls, waits for queued and running calls to be reported and stops
// the owned dispatch loop. It must not be called from a callback.
func (inv *Invoker) Close() error {
	inv.mu.Lock()
	if inv.closed {
		inv.mu.Unlock()
		return nil
	}
	inv.closed = true
	pool := inv.pool
	inv.mu.Unlock()

	if pool != nil {
		pool.shutdown()
		pool.wait()
	}
	// pools replaced by SetThreadSize finish their running calls
	inv.draining.Wait()

	if inv.loop != nil {
		inv.loop.Close()
	}

	return nil
}
