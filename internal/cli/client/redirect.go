package client

import (
	"context"
	"sync"
	"time"
)

// Redirector sends the user to the login surface
type Redirector interface {
	Schedule(reason string)
}

// RedirectFunc adapts a function to Redirector
type RedirectFunc func(reason string)

func (f RedirectFunc) Schedule(reason string) {
	f(reason)
}

// DeferredRedirector runs the navigation callback after a delay.
// While one redirect is pending, further Schedule calls are coalesced into it.
type DeferredRedirector struct {
	delay    time.Duration
	navigate func(reason string)

	mu      sync.Mutex
	pending *pendingRedirect
}

type pendingRedirect struct {
	reason string
	timer  *time.Timer
	done   chan struct{}
	once   sync.Once
}

func (p *pendingRedirect) finish() {
	p.once.Do(func() { close(p.done) })
}

// NewDeferredRedirector creates a redirector that calls navigate delay after Schedule
func NewDeferredRedirector(delay time.Duration, navigate func(reason string)) *DeferredRedirector {
	return &DeferredRedirector{
		delay:    delay,
		navigate: navigate,
	}
}

// Schedule arms the redirect unless one is already pending
func (r *DeferredRedirector) Schedule(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil {
		return
	}

	p := &pendingRedirect{reason: reason, done: make(chan struct{})}
	p.timer = time.AfterFunc(r.delay, func() { r.fire(p) })
	r.pending = p
}

func (r *DeferredRedirector) fire(p *pendingRedirect) {
	defer p.finish()

	r.mu.Lock()
	current := r.pending == p
	r.mu.Unlock()
	if !current {
		return
	}

	if r.navigate != nil {
		r.navigate(p.reason)
	}

	r.mu.Lock()
	if r.pending == p {
		r.pending = nil
	}
	r.mu.Unlock()
}

// Pending reports whether a redirect is armed and has not fired yet
func (r *DeferredRedirector) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// Cancel disarms the pending redirect. It returns false if nothing was
// pending or the navigation had already started.
func (r *DeferredRedirector) Cancel() bool {
	r.mu.Lock()
	p := r.pending
	r.pending = nil
	r.mu.Unlock()

	if p == nil {
		return false
	}

	stopped := p.timer.Stop()
	if stopped {
		p.finish()
	}
	return stopped
}

// Wait blocks until the pending redirect (if any) has fired or was cancelled
func (r *DeferredRedirector) Wait(ctx context.Context) error {
	r.mu.Lock()
	p := r.pending
	r.mu.Unlock()

	if p == nil {
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
