package debate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// agentPool hands out the scripted agent registered for each model label.
type agentPool struct {
	mu     sync.Mutex
	agents map[string]*scriptedAgent
	err    error
}

func newAgentPool(agents ...*scriptedAgent) *agentPool {
	p := &agentPool{agents: make(map[string]*scriptedAgent)}
	for _, a := range agents {
		p.agents[a.name] = a
	}
	return p
}

func (p *agentPool) NewAgent(_ context.Context, card model.Participant) (Agent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	agent, ok := p.agents[card.Model]
	if !ok {
		return nil, fmt.Errorf("no agent for %s", card.Model)
	}
	return agent, nil
}

type fakeGateway struct {
	err     error
	entries []model.ResultEntry
	calls   int
}

func (g *fakeGateway) Invoke(_ context.Context, _ string, _ []model.Participant, emit func(model.ResultEntry)) error {
	g.calls++
	for _, e := range g.entries {
		emit(e)
	}
	return g.err
}

func (g *fakeGateway) URL() string { return "http://gateway.test" }

func debateDeck() []model.Participant {
	return []model.Participant{
		card(model.RoleFacilitator, "fac"),
		card(model.RoleCritic, "critic"),
		card(model.RoleReasoner, "reasoner"),
	}
}

func debatePool(facReplies ...string) *agentPool {
	return newAgentPool(
		&scriptedAgent{name: "fac", replies: facReplies},
		&scriptedAgent{name: "critic"},
		&scriptedAgent{name: "reasoner"},
	)
}

func newTestManager(t *testing.T, factory AgentFactory, opts ...ManagerOption) *Manager {
	t.Helper()
	return NewManager(context.Background(), testEngine(4), factory, nil, opts...)
}

func drain(s *Session) []model.ResultEntry {
	var out []model.ResultEntry
	for {
		entry, ok := s.Poll()
		if !ok {
			return out
		}
		out = append(out, entry)
	}
}

func TestManagerRunsDebateToCompletion(t *testing.T) {
	recorder := newRecordingRecorder()
	m := newTestManager(t, debatePool("We need more discussion", "That is the answer."), WithManagerRecorder(recorder))

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "2+2", StartOptions{}))
	m.Wait()

	s, err := m.Session(DefaultSessionID)
	require.NoError(t, err)

	status := s.Status()
	assert.False(t, status.Debating)
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, 2, status.Round)
	assert.Len(t, s.Transcript(), 6)
	assert.Len(t, drain(s), 6)

	assert.Equal(t, 1, recorder.started)
	assert.Equal(t, []string{ReasonTerminal}, recorder.Finished())
	assert.Equal(t, []int{2}, recorder.rounds)
}

func TestManagerRejectsSecondStart(t *testing.T) {
	block := make(chan struct{})
	pool := newAgentPool(
		&scriptedAgent{name: "fac", replies: []string{"That is the answer."}},
		&scriptedAgent{name: "critic", block: block},
		&scriptedAgent{name: "reasoner", block: block},
	)
	m := newTestManager(t, pool)

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "first", StartOptions{}))

	s, _ := m.Session(DefaultSessionID)
	before := s.Status()

	err := m.Start(DefaultSessionID, "second", StartOptions{})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.True(t, IsConflict(m.Configure(DefaultSessionID, debateDeck())))
	assert.Equal(t, "first", *s.Status().Puzzle)
	assert.Equal(t, before.CardsConfigured, s.Status().CardsConfigured)

	close(block)
	m.Wait()
	assert.False(t, s.Debating())
}

func TestManagerStartValidation(t *testing.T) {
	m := newTestManager(t, debatePool())

	err := m.Start(DefaultSessionID, "2+2", StartOptions{})
	assert.ErrorIs(t, err, ErrNoParticipants)

	require.NoError(t, m.Configure(DefaultSessionID, []model.Participant{card(model.RoleCritic, "critic")}))
	err = m.Start(DefaultSessionID, "2+2", StartOptions{})
	assert.ErrorIs(t, err, ErrNoFacilitator)

	assert.ErrorIs(t, m.Start("missing", "2+2", StartOptions{}), ErrSessionNotFound)
}

func TestManagerWithoutBackend(t *testing.T) {
	m := NewManager(context.Background(), testEngine(1), nil, nil)
	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))

	err := m.Start(DefaultSessionID, "p", StartOptions{})
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.False(t, IsConfiguration(err))
}

func TestManagerAbortsWhenAgentsCannotBeBuilt(t *testing.T) {
	pool := debatePool()
	pool.err = errors.New("bad credentials")
	m := newTestManager(t, pool)
	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))

	err := m.Start(DefaultSessionID, "p", StartOptions{})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))

	s, _ := m.Session(DefaultSessionID)
	assert.Equal(t, StateIdle, s.Status().State)
	assert.Nil(t, s.Status().Puzzle)
	<-s.Done()

	pool.err = fmt.Errorf("label: %w", ErrNoBackend)
	err = m.Start(DefaultSessionID, "p", StartOptions{})
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.False(t, IsConfiguration(err))
}

type rejectingFactory struct{ *agentPool }

func (rejectingFactory) ValidateCard(card model.Participant) error {
	if card.Model == "critic" {
		return errors.New("unknown model")
	}
	return nil
}

func TestManagerConfigureUsesCardValidator(t *testing.T) {
	m := newTestManager(t, rejectingFactory{debatePool()})

	err := m.Configure(DefaultSessionID, debateDeck())
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
	assert.Contains(t, err.Error(), "card 1")

	s, _ := m.Session(DefaultSessionID)
	assert.Empty(t, s.Cards())
}

func TestManagerPrefersGateway(t *testing.T) {
	gw := &fakeGateway{entries: []model.ResultEntry{model.NoticeEntry(model.RoleSystem, "remote transcript")}}
	pool := debatePool("That is the answer.")
	recorder := newRecordingRecorder()
	m := newTestManager(t, pool, WithGateway(gw), WithManagerRecorder(recorder))

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "p", StartOptions{}))
	m.Wait()

	s, _ := m.Session(DefaultSessionID)
	entries := drain(s)
	require.Len(t, entries, 1)
	assert.Equal(t, "remote transcript", entries[0].Message)
	assert.Equal(t, 0, pool.agents["fac"].Calls())
	assert.Equal(t, []string{ReasonGateway}, recorder.Finished())
	assert.Equal(t, "http://gateway.test", m.GatewayURL())
}

func TestManagerFallsBackWhenGatewayUnreachable(t *testing.T) {
	gw := &fakeGateway{err: fmt.Errorf("%w: connection refused", ErrGatewayUnreachable)}
	pool := debatePool("That is the answer.")
	m := newTestManager(t, pool, WithGateway(gw))

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "p", StartOptions{}))
	m.Wait()

	s, _ := m.Session(DefaultSessionID)
	assert.Equal(t, 1, gw.calls)
	assert.Len(t, s.Transcript(), 3)
	for _, entry := range drain(s) {
		assert.NotEqual(t, model.RoleError, entry.Role)
	}
}

func TestManagerReportsGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("decode failed")}
	pool := debatePool("That is the answer.")
	m := newTestManager(t, pool, WithGateway(gw))

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "p", StartOptions{}))
	m.Wait()

	s, _ := m.Session(DefaultSessionID)
	entries := drain(s)
	require.Len(t, entries, 1)
	assert.Equal(t, model.RoleError, entries[0].Role)
	assert.Equal(t, "#FF0000", entries[0].Colour)
	assert.Equal(t, 0, pool.agents["fac"].Calls())
	assert.False(t, s.Debating())
}

func TestManagerLocalSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestManager(t, debatePool("That is the answer."), WithGateway(gw))

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "p", StartOptions{Local: true}))
	m.Wait()

	assert.Zero(t, gw.calls)
}

type panickingAgent struct{ scriptedAgent }

func (a *panickingAgent) ClearContext() { panic("context store corrupted") }

func TestManagerClearsDebatingAfterEngineFault(t *testing.T) {
	recorder := newRecordingRecorder()
	pool := debatePool()
	m := NewManager(context.Background(), testEngine(2), AgentFactoryFunc(func(ctx context.Context, c model.Participant) (Agent, error) {
		if c.Role == model.RoleCritic {
			return &panickingAgent{scriptedAgent{name: "critic"}}, nil
		}
		return pool.NewAgent(ctx, c)
	}), nil, WithManagerRecorder(recorder))

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "p", StartOptions{}))
	m.Wait()

	s, _ := m.Session(DefaultSessionID)
	assert.False(t, s.Debating())
	assert.Equal(t, StateCompleted, s.Status().State)

	entries := drain(s)
	require.Len(t, entries, 1)
	assert.Equal(t, model.RoleError, entries[0].Role)
	assert.Contains(t, entries[0].Message, "context store corrupted")
	assert.Equal(t, []string{ReasonFatal}, recorder.Finished())
}

func TestManagerCancelledRunStillFinishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	pool := newAgentPool(
		&scriptedAgent{name: "fac"},
		&scriptedAgent{name: "critic", block: block},
		&scriptedAgent{name: "reasoner", block: block},
	)
	m := NewManager(ctx, testEngine(4), pool, nil)

	require.NoError(t, m.Configure(DefaultSessionID, debateDeck()))
	require.NoError(t, m.Start(DefaultSessionID, "p", StartOptions{}))
	cancel()
	m.Wait()

	s, _ := m.Session(DefaultSessionID)
	assert.False(t, s.Debating())
}

func TestManagerSessions(t *testing.T) {
	m := newTestManager(t, debatePool("That is the answer."))

	created := m.CreateSession()
	other := m.CreateSession()

	statuses := m.Sessions()
	require.Len(t, statuses, 3)
	assert.Equal(t, DefaultSessionID, statuses[0].SessionID)

	got, err := m.Session(created.ID())
	require.NoError(t, err)
	assert.Same(t, created, got)

	require.NoError(t, m.Configure(created.ID(), debateDeck()))
	require.NoError(t, m.Start(created.ID(), "p", StartOptions{}))
	m.Wait()
	assert.Len(t, created.Transcript(), 3)

	def, _ := m.Session(DefaultSessionID)
	assert.Empty(t, def.Transcript())

	assert.ErrorIs(t, m.DeleteSession(DefaultSessionID), ErrDefaultSession)
	require.NoError(t, m.DeleteSession(other.ID()))
	assert.ErrorIs(t, m.DeleteSession(other.ID()), ErrSessionNotFound)
	assert.Len(t, m.Sessions(), 2)
	assert.Equal(t, 4, m.MaxRounds())
}

func TestManagerDeleteRunningSession(t *testing.T) {
	block := make(chan struct{})
	pool := newAgentPool(
		&scriptedAgent{name: "fac", replies: []string{"That is the answer."}},
		&scriptedAgent{name: "critic", block: block},
		&scriptedAgent{name: "reasoner"},
	)
	m := newTestManager(t, pool)
	s := m.CreateSession()

	require.NoError(t, m.Configure(s.ID(), debateDeck()))
	require.NoError(t, m.Start(s.ID(), "p", StartOptions{}))
	assert.True(t, IsConflict(m.DeleteSession(s.ID())))

	close(block)
	m.Wait()
	assert.NoError(t, m.DeleteSession(s.ID()))
}

func TestManagerStartAndDeleteNeverOrphanARun(t *testing.T) {
	block := make(chan struct{})
	pool := newAgentPool(
		&scriptedAgent{name: "fac", replies: []string{"That is the answer."}},
		&scriptedAgent{name: "critic", block: block},
		&scriptedAgent{name: "reasoner"},
	)
	m := newTestManager(t, pool)
	defer func() {
		close(block)
		m.Wait()
	}()

	for i := 0; i < 200; i++ {
		s := m.CreateSession()
		require.NoError(t, m.Configure(s.ID(), debateDeck()))

		var (
			wg       sync.WaitGroup
			startErr error
			delErr   error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			startErr = m.Start(s.ID(), "p", StartOptions{})
		}()
		go func() {
			defer wg.Done()
			delErr = m.DeleteSession(s.ID())
		}()
		wg.Wait()

		if startErr == nil {
			// A started run keeps its session reachable.
			assert.True(t, IsConflict(delErr), "iteration %d: delete succeeded under a running debate", i)
			_, err := m.Session(s.ID())
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, startErr, ErrSessionNotFound)
			assert.NoError(t, delErr)
		}
	}
}
