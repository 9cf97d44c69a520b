// Package session holds the capability view of one interactive caller.
//
// A Session owns an immutable Capabilities value and a version stamp.
// State changes only through events (LoggedIn, PermissionsUpdated,
// LoggedOut) delivered to Handle or through a channel consumed by Run.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xraph/gatehouse"
)

// Projector computes capability projections.
// *gatehouse.Engine satisfies it.
type Projector interface {
	Capabilities(ctx context.Context, p *gatehouse.Principal) (*gatehouse.Capabilities, error)
	InvalidateCapabilities(ctx context.Context, userID string)
}

// Event is a state change delivered to a session.
type Event interface {
	isEvent()
}

// LoggedIn replaces the session principal.
type LoggedIn struct {
	Principal *gatehouse.Principal
}

// PermissionsUpdated signals that grants, roles or entitlements of UserID
// changed. Sessions of other users ignore it.
type PermissionsUpdated struct {
	UserID string
}

// LoggedOut clears the session.
type LoggedOut struct{}

func (LoggedIn) isEvent()           {}
func (PermissionsUpdated) isEvent() {}
func (LoggedOut) isEvent()          {}

// View is an immutable snapshot of session state.
type View struct {
	Principal    *gatehouse.Principal
	Capabilities *gatehouse.Capabilities
	Version      uint64
}

// Session is safe for concurrent use.
type Session struct {
	projector Projector
	logger    *slog.Logger

	mu   sync.RWMutex
	view View
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// New creates an empty, logged-out session.
func New(projector Projector, opts ...Option) *Session {
	s := &Session{
		projector: projector,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the current state.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Version returns the current version stamp.
func (s *Session) Version() uint64 { return s.View().Version }

// Handle applies ev. Projection failures leave the session without
// capabilities, which denies every guarded navigation.
func (s *Session) Handle(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case LoggedIn:
		if ev.Principal == nil {
			return gatehouse.ErrUnauthenticated
		}
		s.projector.InvalidateCapabilities(ctx, ev.Principal.UserID())
		return s.refresh(ctx, ev.Principal)

	case PermissionsUpdated:
		current := s.View().Principal
		if current == nil || current.UserID() != ev.UserID {
			return nil
		}
		return s.refresh(ctx, current)

	case LoggedOut:
		s.mu.Lock()
		prev := s.view.Principal
		s.view = View{Version: s.view.Version + 1}
		s.mu.Unlock()
		if prev != nil {
			s.projector.InvalidateCapabilities(ctx, prev.UserID())
		}
		return nil
	}
	return errors.New("session: unknown event")
}

// refresh projects p off-lock and installs the result only if no other
// event landed in the meantime. A superseded projection is dropped.
func (s *Session) refresh(ctx context.Context, p *gatehouse.Principal) error {
	base := s.Version()
	caps, err := s.projector.Capabilities(ctx, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Version != base {
		s.logger.Debug("session: dropping stale projection",
			"user_id", p.UserID(), "base", base, "version", s.view.Version)
		return nil
	}
	s.view = View{
		Principal:    p,
		Capabilities: caps,
		Version:      s.view.Version + 1,
	}
	return err
}

// Run consumes events until ctx is done or events is closed. Handler
// errors are logged and do not stop the loop.
func (s *Session) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, ev); err != nil {
				s.logger.Warn("session: event failed", "error", err)
			}
		}
	}
}

// Guard evaluates req against the cached capabilities with the same stage
// order the server uses.
func (s *Session) Guard(req gatehouse.Requirement) *gatehouse.Verdict {
	v := s.View()
	return v.Capabilities.Evaluate(v.Principal, req)
}

// Menu returns the modules the caller can reach, in display order.
func (s *Session) Menu() []gatehouse.ModuleCapability {
	caps := s.View().Capabilities
	if caps == nil {
		return nil
	}
	return caps.Modules
}
