package relay

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// HandlerFunc is the terminal stage bound to a route.
type HandlerFunc func(c *Context) error

// MiddlewareFunc is a plain stage. It continues the chain with c.Next, diverts
// it with c.Fail or a returned error, or ends it by sending the response.
type MiddlewareFunc func(c *Context) error

// ErrorMiddlewareFunc only runs while an error is pending. Returning nil after
// sending consumes the error; c.Next resumes plain stages; c.Fail or a
// returned error hands a (possibly new) error further down.
type ErrorMiddlewareFunc func(c *Context, err error) error

type stageKind int

const (
	stagePlain stageKind = iota
	stageError
)

type stage struct {
	kind    stageKind
	plain   MiddlewareFunc
	onError ErrorMiddlewareFunc
}

type continuation struct {
	err error
}

type requestState int

const (
	stateReceived requestState = iota
	stateMatchingRoute
	stateRunningChain
	stateErroring
	stateRunningErrorChain
	stateResponded
	stateClosed
)

func (s requestState) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateMatchingRoute:
		return "matching-route"
	case stateRunningChain:
		return "running-chain"
	case stateErroring:
		return "erroring"
	case stateRunningErrorChain:
		return "running-error-chain"
	case stateResponded:
		return "responded"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// exchange drives one request through its resolved chain.
type exchange struct {
	c     *Context
	chain []stage

	mu      sync.Mutex
	history []requestState
	cursor  int
	aborted bool
}

func newExchange(c *Context, chain []stage) *exchange {
	return &exchange{c: c, chain: chain, history: []requestState{stateReceived}}
}

// transition records s unless the request is already closed.
func (x *exchange) transition(s requestState) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if n := len(x.history); n > 0 && (x.history[n-1] == stateClosed || x.history[n-1] == s) {
		return
	}
	x.history = append(x.history, s)
}

func (x *exchange) states() []requestState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]requestState(nil), x.history...)
}

// drive runs stages until one sends, the chain is exhausted or ctx ends.
func (x *exchange) drive(ctx context.Context) {
	c := x.c
	var pending error

	for x.cursor < len(x.chain) {
		if ctx.Err() != nil {
			return
		}
		st := x.chain[x.cursor]
		x.cursor++

		if (pending == nil) != (st.kind == stagePlain) {
			continue
		}
		if pending != nil {
			x.transition(stateRunningErrorChain)
		}

		sig, ok := x.step(ctx, st, pending)
		if c.response.Sent() {
			if sig.err != nil {
				c.engine.logError(c.Method(), c.Path(), fmt.Errorf("error after response was sent: %w", sig.err))
			}
			x.transition(stateResponded)
			return
		}
		if !ok {
			return
		}

		switch {
		case sig.err != nil:
			pending = sig.err
			x.transition(stateErroring)
		case pending != nil:
			pending = nil
			x.transition(stateRunningChain)
		}
	}

	if ctx.Err() != nil {
		return
	}
	if pending != nil {
		x.transition(stateRunningErrorChain)
		c.engine.serverError(c, pending)
	} else {
		c.engine.fallback(c)
	}
	if c.response.Sent() {
		x.transition(stateResponded)
	}
}

// step runs a single stage and waits for its continuation. ok is false when
// the stage sent the response or the request ended while waiting.
func (x *exchange) step(ctx context.Context, st stage, pending error) (continuation, bool) {
	c := x.c
	c.arm()

	if err := invoke(c, st, pending); err != nil {
		c.disarm()
		return continuation{err: err}, true
	}

	select {
	case sig := <-c.signals:
		return sig, true
	case <-c.response.done:
		c.disarm()
		return continuation{}, false
	case <-ctx.Done():
		c.disarm()
		return continuation{}, false
	}
}

func invoke(c *Context, st stage, pending error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &HandlerError{Value: v, Stack: debug.Stack()}
		}
	}()
	if st.kind == stageError {
		return st.onError(c, pending)
	}
	return st.plain(c)
}
