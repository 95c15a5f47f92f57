package debate

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// State is the lifecycle position of a session.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Status is the poll-safe summary of a session.
type Status struct {
	SessionID       string    `json:"sessionId"`
	Debating        bool      `json:"debating"`
	State           State     `json:"state"`
	Round           int       `json:"round"`
	CardsConfigured int       `json:"cardsConfigured"`
	Turns           int       `json:"turns"`
	Queued          int       `json:"queued"`
	Puzzle          *string   `json:"puzzle"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Session holds the configuration, transcript and result queue of one
// debate table. The mutex guards every field; while a run is active only the
// engine appends to the transcript.
type Session struct {
	id        string
	createdAt time.Time
	results   *ResultQueue

	mu         sync.Mutex
	cards      []model.Participant
	puzzle     *string
	state      State
	round      int
	transcript []model.TranscriptEntry
	done       chan struct{}
	saved      *snapshot
}

type snapshot struct {
	puzzle     *string
	state      State
	round      int
	transcript []model.TranscriptEntry
}

// NewSession returns an idle session. An empty id gets a generated one.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	done := make(chan struct{})
	close(done)
	return &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		results:   NewResultQueue(),
		state:     StateIdle,
		done:      done,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Configure replaces the deck. It is rejected while a debate runs.
func (s *Session) Configure(cards []model.Participant) error {
	for i, card := range cards {
		if err := card.Validate(); err != nil {
			return configurationError(ErrInvalidCard, "card "+strconv.Itoa(i)+": "+err.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return &ConflictError{Op: "configure"}
	}
	s.cards = append([]model.Participant(nil), cards...)
	return nil
}

// Cards returns a copy of the configured deck.
func (s *Session) Cards() []model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Participant(nil), s.cards...)
}

// Debating reports whether a run is active.
func (s *Session) Debating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// Status summarises the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var puzzle *string
	if s.puzzle != nil {
		p := *s.puzzle
		puzzle = &p
	}
	return Status{
		SessionID:       s.id,
		Debating:        s.state == StateRunning,
		State:           s.state,
		Round:           s.round,
		CardsConfigured: len(s.cards),
		Turns:           len(s.transcript),
		Queued:          s.results.Len(),
		Puzzle:          puzzle,
		CreatedAt:       s.createdAt,
	}
}

// Poll pops the oldest result entry without waiting. The entry is stamped
// with the debating flag observed at pop time.
func (s *Session) Poll() (model.ResultEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.results.TryPop()
	entry.Debating = s.state == StateRunning
	return entry, ok
}

// Transcript returns a copy of the current run's transcript.
func (s *Session) Transcript() []model.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TranscriptEntry(nil), s.transcript...)
}

// TranscriptSince returns the entries after the first n and whether the
// run is still active. Live tails use it as a cursor.
func (s *Session) TranscriptSince(n int) ([]model.TranscriptEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := s.state == StateRunning
	if n < 0 {
		n = 0
	}
	if n >= len(s.transcript) {
		return nil, running
	}
	return append([]model.TranscriptEntry(nil), s.transcript[n:]...), running
}

// Done is closed when the latest run has completed. A session that never
// ran returns a closed channel.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Reset drains the result queue and clears the configuration.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return &ConflictError{Op: "reset"}
	}
	s.cards = nil
	s.puzzle = nil
	s.state = StateIdle
	s.round = 0
	s.transcript = nil
	s.results.Drain()
	return nil
}

// begin validates the start request and flips the session to running in
// one critical section. It returns the deck the run will use.
func (s *Session) begin(puzzle string) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return nil, &ConflictError{Op: "start"}
	}
	if strings.TrimSpace(puzzle) == "" {
		return nil, configurationError(ErrPuzzleRequired, "")
	}
	if len(s.cards) == 0 {
		return nil, configurationError(ErrNoParticipants, "call /api/deck first")
	}
	if !hasFacilitator(s.cards) {
		return nil, configurationError(ErrNoFacilitator, "")
	}

	s.saved = &snapshot{puzzle: s.puzzle, state: s.state, round: s.round, transcript: s.transcript}
	s.puzzle = &puzzle
	s.state = StateRunning
	s.round = 0
	s.transcript = nil
	s.done = make(chan struct{})
	return append([]model.Participant(nil), s.cards...), nil
}

// abort undoes begin when the run could not be launched.
func (s *Session) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || s.saved == nil {
		return
	}
	s.puzzle = s.saved.puzzle
	s.state = s.saved.state
	s.round = s.saved.round
	s.transcript = s.saved.transcript
	s.saved = nil
	close(s.done)
}

// finish clears the debating flag. Only the first call after begin has an
// effect; it reports whether this call made the transition.
func (s *Session) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return false
	}
	s.state = StateCompleted
	s.saved = nil
	close(s.done)
	return true
}

func (s *Session) setRound(round int) {
	s.mu.Lock()
	s.round = round
	s.mu.Unlock()
}

// record appends a transcript entry and queues its projection under the
// same lock, so pollers observe exactly the transcript order.
func (s *Session) record(round int, card model.Participant, message string) model.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := model.TranscriptEntry{
		ID:        uuid.NewString(),
		Seq:       len(s.transcript) + 1,
		Round:     round,
		Role:      card.Role,
		Model:     card.Model,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.transcript = append(s.transcript, entry)
	s.results.Push(entry.Project())
	return entry
}

// notify queues an entry that has no transcript counterpart.
func (s *Session) notify(entry model.ResultEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results.Push(entry)
}

func hasFacilitator(cards []model.Participant) bool {
	for _, card := range cards {
		if card.Role == model.RoleFacilitator {
			return true
		}
	}
	return false
}
