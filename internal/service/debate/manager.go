package debate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// DefaultSessionID names the session served by the unscoped API routes.
const DefaultSessionID = "default"

// ErrGatewayUnreachable is returned by a Gateway that could not be
// contacted at all. The manager then runs the local engine instead.
var ErrGatewayUnreachable = errors.New("orchestration gateway unreachable")

// Gateway delegates a whole debate to a remote orchestrator.
type Gateway interface {
	Invoke(ctx context.Context, puzzle string, cards []model.Participant, emit func(model.ResultEntry)) error
	URL() string
}

// CardValidator is implemented by factories that can reject a card before
// a debate starts, for example because its model label is unknown.
type CardValidator interface {
	ValidateCard(card model.Participant) error
}

// StartOptions tunes one start request.
type StartOptions struct {
	// Local skips the gateway even when one is configured.
	Local bool
}

// Manager owns the sessions of the process and launches their runs.
type Manager struct {
	ctx      context.Context
	engine   *Engine
	factory  AgentFactory
	gateway  Gateway
	recorder Recorder
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithGateway tries gw before the local engine.
func WithGateway(gw Gateway) ManagerOption {
	return func(m *Manager) { m.gateway = gw }
}

// WithManagerRecorder attaches a metrics recorder to run lifecycle events.
func WithManagerRecorder(r Recorder) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// NewManager creates a manager with the default session in place. Runs are
// bound to ctx; cancelling it stops them between calls. factory may be nil,
// in which case starts fail with ErrNoBackend.
func NewManager(ctx context.Context, engine *Engine, factory AgentFactory, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		ctx:      ctx,
		engine:   engine,
		factory:  factory,
		recorder: nopRecorder{},
		logger:   logger.With(zap.String("component", "debate_manager")),
		sessions: map[string]*Session{
			DefaultSessionID: NewSession(DefaultSessionID),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MaxRounds exposes the engine bound for status reporting.
func (m *Manager) MaxRounds() int {
	return m.engine.Config().MaxRounds
}

// GatewayURL returns the configured gateway, or "" when there is none.
func (m *Manager) GatewayURL() string {
	if m.gateway == nil {
		return ""
	}
	return m.gateway.URL()
}

// CreateSession provisions an extra debate table.
func (m *Manager) CreateSession() *Session {
	s := NewSession("")

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session", s.ID()))
	return s
}

// Session looks a session up by id.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Sessions lists the status of every session, default first.
func (m *Manager) Sessions() []Status {
	m.mu.RLock()
	statuses := make([]Status, 0, len(m.sessions))
	for _, s := range m.sessions {
		statuses = append(statuses, s.Status())
	}
	m.mu.RUnlock()

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].SessionID == DefaultSessionID {
			return true
		}
		if statuses[j].SessionID == DefaultSessionID {
			return false
		}
		return statuses[i].CreatedAt.Before(statuses[j].CreatedAt)
	})
	return statuses
}

// DeleteSession removes an idle session. The default session cannot be
// removed, only reset.
func (m *Manager) DeleteSession(id string) error {
	if id == DefaultSessionID {
		return ErrDefaultSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Debating() {
		return &ConflictError{Op: "delete"}
	}
	delete(m.sessions, id)
	return nil
}

// Configure validates cards against the backend and stores them.
func (m *Manager) Configure(id string, cards []model.Participant) error {
	s, err := m.Session(id)
	if err != nil {
		return err
	}
	if v, ok := m.factory.(CardValidator); ok {
		for i, card := range cards {
			if err := v.ValidateCard(card); err != nil {
				return configurationError(ErrInvalidCard, fmt.Sprintf("card %d: %v", i, err))
			}
		}
	}
	return s.Configure(cards)
}

// Start validates the request, flips the session to running and launches
// the run in the background. It never blocks on the agents.
func (m *Manager) Start(id, puzzle string, opts StartOptions) error {
	if m.factory == nil {
		if _, err := m.Session(id); err != nil {
			return err
		}
		return ErrNoBackend
	}

	// The lookup and begin share the read lock so DeleteSession cannot drop
	// the session in between.
	m.mu.RLock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.RUnlock()
		return ErrSessionNotFound
	}
	cards, err := s.begin(puzzle)
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	handles, err := NewHandles(m.ctx, m.factory, cards)
	if err != nil {
		s.abort()
		if errors.Is(err, ErrNoBackend) {
			return err
		}
		return configurationError(ErrInvalidCard, err.Error())
	}

	useGateway := m.gateway != nil && !opts.Local
	m.wg.Add(1)
	go m.run(s, puzzle, cards, handles, useGateway)
	return nil
}

// Wait blocks until every launched run has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(s *Session, puzzle string, cards []model.Participant, handles []*Handle, useGateway bool) {
	defer m.wg.Done()

	logger := m.logger.With(zap.String("session", s.ID()))
	outcome := Outcome{Reason: ReasonFatal}
	m.recorder.DebateStarted()

	defer func() {
		if r := recover(); r != nil {
			fatal := &FatalEngineError{Cause: r}
			logger.Error("debate aborted", zap.Error(fatal), zap.Stack("stack"))
			s.notify(model.NoticeEntry(model.RoleError, "Error: "+fatal.Error()))
			outcome.Reason = ReasonFatal
		}
		if s.finish() {
			m.recorder.DebateFinished(outcome.Reason, outcome.Rounds)
			logger.Info("debate finished",
				zap.String("reason", outcome.Reason),
				zap.Int("rounds", outcome.Rounds),
			)
		}
	}()

	if useGateway {
		err := m.gateway.Invoke(m.ctx, puzzle, cards, s.notify)
		switch {
		case err == nil:
			outcome.Reason = ReasonGateway
			return
		case errors.Is(err, ErrGatewayUnreachable):
			logger.Warn("gateway unreachable, running locally", zap.Error(err))
		default:
			logger.Error("gateway debate failed", zap.Error(err))
			s.notify(model.NoticeEntry(model.RoleError, err.Error()))
			return
		}
	}

	result, err := m.engine.Run(m.ctx, s, puzzle, handles)
	outcome = result
	if err != nil {
		if outcome.Reason == "" {
			outcome.Reason = ReasonFatal
		}
		logger.Error("local debate stopped", zap.Error(err))
		s.notify(model.NoticeEntry(model.RoleError, "Direct debate error: "+strings.TrimSpace(err.Error())))
	}
}
