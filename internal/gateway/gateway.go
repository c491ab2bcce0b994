// Package gateway mediates collaborator calls behind one shared busy flag and one shared error slot.
//
// The gateway does not queue, lock out or cancel overlapping calls. Callers are expected to
// honor Busy by not triggering a new call while one is outstanding.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Gateway tracks whether a collaborator call is in flight and the last failure shown to the user.
type Gateway struct {
	mu        sync.Mutex
	busy      bool
	lastError string
	log       *zap.Logger
}

// State is a point-in-time view of the gateway.
type State struct {
	Busy  bool
	Error string
}

// New creates an idle gateway.
func New(log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{log: log.Named("gateway")}
}

// Busy reports whether a gated call is outstanding.
func (g *Gateway) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// LastError returns the display string of the last failure, if any.
func (g *Gateway) LastError() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError, g.lastError != ""
}

// State returns busy and error together.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{Busy: g.busy, Error: g.lastError}
}

// SetError surfaces a failure that never reached the collaborator. Busy is left untouched.
func (g *Gateway) SetError(message string) {
	g.mu.Lock()
	g.lastError = message
	g.mu.Unlock()
}

// ClearError empties the error slot.
func (g *Gateway) ClearError() {
	g.SetError("")
}

func (g *Gateway) begin() {
	g.mu.Lock()
	g.busy = true
	g.lastError = ""
	g.mu.Unlock()
}

func (g *Gateway) end(message string) {
	g.mu.Lock()
	g.busy = false
	if message != "" {
		g.lastError = message
	}
	g.mu.Unlock()
}

// Outcome is the explicit result of a gated call.
type Outcome[T any] struct {
	OK    bool
	Value T
	Err   error
}

// Message returns the display string of a failed outcome.
func (o Outcome[T]) Message() string {
	if o.Err == nil {
		return ""
	}
	var failed *RequestFailed
	if errors.As(o.Err, &failed) {
		return failed.Message
	}
	return o.Err.Error()
}

// RequestFailed is returned in a failed Outcome so the caller can abort its own state change.
type RequestFailed struct {
	Op      string
	Message string
	Cause   error
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RequestFailed) Unwrap() error {
	return e.Cause
}

// UserMessager is implemented by errors that carry a collaborator-supplied reason.
type UserMessager interface {
	UserMessage() (string, bool)
}

// Run marks the gateway busy, clears the error slot and performs call.
// On failure the error slot receives the collaborator's reason when present, or a generic
// description built from op.
func Run[T any](ctx context.Context, g *Gateway, op string, call func(context.Context) (T, error)) Outcome[T] {
	g.begin()
	start := time.Now()
	g.log.Debug("call started", zap.String("op", op))

	value, err := call(ctx)
	if err == nil {
		g.end("")
		g.log.Debug("call finished", zap.String("op", op), zap.Duration("duration", time.Since(start)))
		return Outcome[T]{OK: true, Value: value}
	}

	message := describe(op, err)
	g.end(message)
	g.log.Warn("call failed",
		zap.String("op", op),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)

	var zero T
	return Outcome[T]{
		Value: zero,
		Err:   &RequestFailed{Op: op, Message: message, Cause: err},
	}
}

// Do is Run for calls without a payload.
func Do(ctx context.Context, g *Gateway, op string, call func(context.Context) error) Outcome[struct{}] {
	return Run(ctx, g, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	})
}

func describe(op string, err error) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg, ok := um.UserMessage(); ok {
			return msg
		}
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}
