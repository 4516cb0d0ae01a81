package app

import (
	"context"
	"sync"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionState is where a connection is in its lifecycle.
type SessionState int

const (
	StateUnbound SessionState = iota
	StateBound
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	default:
		return "closed"
	}
}

type sessionEntry struct {
	State   SessionState
	Member  domain.Member
	Conn    core.SignalConnection
	Session core.MemberSession
	Client  string
	Cancel  context.CancelFunc
}

// Registry tracks every live connection and its room binding.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// BindSignal registers a fresh, unbound connection.
func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, client string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		State:  StateUnbound,
		Conn:   conn,
		Client: client,
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("client", client).Msg("bound signal")
}

// Bind moves the session to bound under member and returns the member
// session a room should fan out to.
func (r *Registry) Bind(sid core.SessionID, member domain.Member) (core.MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.State == StateClosed {
		return nil, false
	}
	e.State = StateBound
	e.Member = member
	e.Session = core.NewMemberSession(member, e.Conn)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(member.Room)).Str("user", string(member.User)).Msg("bound session")
	return e.Session, true
}

// Binding returns the room binding of a bound session.
func (r *Registry) Binding(sid core.SessionID) (domain.Member, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.State != StateBound {
		return domain.Member{}, nil, false
	}
	return e.Member, e.Session, true
}

func (r *Registry) State(sid core.SessionID) (SessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return StateClosed, false
	}
	return e.State, true
}

func (r *Registry) Client(sid core.SessionID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Client
	}
	return ""
}

// Close marks the session closed and forgets it. It returns the binding
// the session had, if any.
func (r *Registry) Close(sid core.SessionID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.Member{}, false
	}
	wasBound := e.State == StateBound
	e.State = StateClosed
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.Member, wasBound
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
