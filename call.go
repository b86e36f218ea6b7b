package soapinvoker

import (
	"context"
	"sync"
)

// Endpoint identifies the remote method of a call
type Endpoint struct {
	URL       string
	Namespace string
	Method    string
}

func (ep Endpoint) valid() bool {
	return ep.URL != "" && ep.Namespace != "" && ep.Method != ""
}

// action is the SOAPAction sent on the retry
func (ep Endpoint) action() string {
	return ep.Namespace + ep.Method
}

// Callback receives the outcome of Invoker.Call. Exactly one of the methods is called, once.
type Callback interface {
	OnSuccess(resp *Response)
	OnError(err error)
}

// CallbackFuncs adapts two functions to Callback. Nil functions are skipped.
type CallbackFuncs struct {
	Success func(resp *Response)
	Error   func(err error)
}

// OnSuccess implements Callback
func (f CallbackFuncs) OnSuccess(resp *Response) {
	if f.Success != nil {
		f.Success(resp)
	}
}

// OnError implements Callback
func (f CallbackFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// Call is an asynchronous SOAP call. Response and Error must only be read after Done fired.
type Call struct {
	ID       string
	Endpoint Endpoint
	Params   map[string]string

	// Response is set on success, Error on failure. Never both.
	Response *Response
	Error    error
	// Attempts is the number of network round trips made, 0, 1 or 2
	Attempts int

	// Done receives the call once it is resolved
	Done chan *Call

	request  Request
	once     sync.Once
	resolved chan struct{}
	notify   func(*Call)
}

func newCall(ep Endpoint, params map[string]string, dotNet bool) *Call {
	c := &Call{
		ID:       generateID("call"),
		Endpoint: ep,
		Params:   params,
		Done:     make(chan *Call, 1),
		resolved: make(chan struct{}),
	}
	c.request = Request{
		Namespace: ep.Namespace,
		Method:    ep.Method,
		Params:    copyParams(params),
		DotNet:    dotNet,
	}
	return c
}

// finish resolves the call. Only the first resolution counts.
func (c *Call) finish(resp *Response, err error) bool {
	resolved := false
	c.once.Do(func() {
		resolved = true
		if err != nil {
			c.Error = err
		} else {
			c.Response = resp
		}
		close(c.resolved)
		c.Done <- c
		if c.notify != nil {
			c.notify(c)
		}
	})
	return resolved
}

// Wait blocks until the call is resolved or ctx is done. Giving up on the wait does not
// cancel the call.
func (c *Call) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-c.resolved:
		return c.Response, c.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func copyParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
