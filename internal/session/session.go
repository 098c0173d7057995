// Package session carries per-connection state into the engine: a stable id
// for logging and a context so long statements (bulk constraint validation
// in particular) can be interrupted.
package session

import (
	"context"

	"github.com/google/uuid"
)

type Session struct {
	id     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
}

func New(ctx context.Context) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{id: uuid.New(), ctx: ctx, cancel: cancel}
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) Context() context.Context { return s.ctx }

// Cancel interrupts the running statement. Safe to call from another
// goroutine; the statement observes it at the next context check.
func (s *Session) Cancel() { s.cancel() }
