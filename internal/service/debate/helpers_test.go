package debate

import (
	"context"
	"errors"
	"sync"
	"time"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

var errProvider = errors.New("provider unavailable")

// scriptedAgent replies from a script, repeating the last line once the
// script runs out. A nil script with fail set makes every call fail.
type scriptedAgent struct {
	name    string
	replies []string
	fail    bool
	panics  bool
	block   chan struct{}

	mu       sync.Mutex
	calls    int
	contexts []string
	cleared  int
}

func (a *scriptedAgent) Respond(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	a.calls++
	n := a.calls
	a.mu.Unlock()

	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if a.panics {
		panic("backend exploded")
	}
	if a.fail {
		return "", errProvider
	}
	if len(a.replies) == 0 {
		return a.name + " speaks", nil
	}
	if n > len(a.replies) {
		n = len(a.replies)
	}
	return a.replies[n-1], nil
}

func (a *scriptedAgent) AddContext(message string) {
	a.mu.Lock()
	a.contexts = append(a.contexts, message)
	a.mu.Unlock()
}

func (a *scriptedAgent) ClearContext() {
	a.mu.Lock()
	a.contexts = nil
	a.cleared++
	a.mu.Unlock()
}

func (a *scriptedAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *scriptedAgent) Contexts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.contexts...)
}

func card(role model.Role, name string) model.Participant {
	return model.Participant{Model: name, Expertise: "Logic", Personality: "Calm", Role: role}
}

func handle(role model.Role, agent *scriptedAgent) *Handle {
	return &Handle{Card: card(role, agent.name), Agent: agent}
}

func cardsOf(handles []*Handle) []model.Participant {
	cards := make([]model.Participant, 0, len(handles))
	for _, h := range handles {
		cards = append(cards, h.Card)
	}
	return cards
}

func noPause(context.Context, time.Duration) error { return nil }

func testEngine(rounds int, opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithPause(noPause), WithScheduler(NewSeededScheduler(7))}, opts...)
	return NewEngine(Config{MaxRounds: rounds}, nil, opts...)
}

// recordingRecorder captures metrics callbacks.
type recordingRecorder struct {
	mu       sync.Mutex
	started  int
	finished []string
	rounds   []int
	turns    map[string]int
	failures map[string]int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{turns: map[string]int{}, failures: map[string]int{}}
}

func (r *recordingRecorder) DebateStarted() {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *recordingRecorder) DebateFinished(reason string, rounds int) {
	r.mu.Lock()
	r.finished = append(r.finished, reason)
	r.rounds = append(r.rounds, rounds)
	r.mu.Unlock()
}

func (r *recordingRecorder) TurnObserved(role string, ok bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.turns[role]++
	} else {
		r.failures[role]++
	}
}

func (r *recordingRecorder) Finished() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.finished...)
}
