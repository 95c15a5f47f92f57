package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPrompt is sent to every participant when it is their turn.
const DefaultPrompt = "it is now your turn to speak"

// Reasons reported when a run ends.
const (
	ReasonTerminal  = "terminal"
	ReasonExhausted = "exhausted"
	ReasonCancelled = "cancelled"
	ReasonFatal     = "fatal"
	ReasonGateway   = "gateway"
)

// Config bounds the protocol.
type Config struct {
	MaxRounds int
	TurnDelay time.Duration
	Prompt    string
}

// DefaultConfig returns the production bounds: four rounds, one second
// between calls.
func DefaultConfig() Config {
	return Config{
		MaxRounds: 4,
		TurnDelay: time.Second,
		Prompt:    DefaultPrompt,
	}
}

// Recorder observes engine activity. The metrics collector implements it.
type Recorder interface {
	DebateStarted()
	DebateFinished(reason string, rounds int)
	TurnObserved(role string, ok bool, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) DebateStarted()                           {}
func (nopRecorder) DebateFinished(string, int)               {}
func (nopRecorder) TurnObserved(string, bool, time.Duration) {}

// Outcome describes how a run ended.
type Outcome struct {
	Rounds int
	Reason string
}

// Engine runs the facilitated round-robin protocol.
type Engine struct {
	cfg       Config
	scheduler *Scheduler
	recorder  Recorder
	logger    *zap.Logger
	pause     func(ctx context.Context, d time.Duration) error
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithScheduler replaces the speaker shuffler.
func WithScheduler(s *Scheduler) EngineOption {
	return func(e *Engine) { e.scheduler = s }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithPause replaces the inter-call delay implementation.
func WithPause(pause func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) { e.pause = pause }
}

// NewEngine builds an engine. Zero config fields take their defaults.
func NewEngine(cfg Config, logger *zap.Logger, opts ...EngineOption) *Engine {
	defaults := DefaultConfig()
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaults.MaxRounds
	}
	if cfg.TurnDelay < 0 {
		cfg.TurnDelay = 0
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		cfg.Prompt = defaults.Prompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:       cfg,
		scheduler: NewScheduler(),
		recorder:  nopRecorder{},
		logger:    logger.With(zap.String("component", "debate_engine")),
		pause:     sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective bounds.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run plays the debate for session with the given handles. It returns when
// the facilitator says the terminal phrase, the round bound is reached or
// ctx is done. Per-turn failures are logged and skipped; Run never clears
// the session's debating flag, its caller does.
func (e *Engine) Run(ctx context.Context, session *Session, puzzle string, handles []*Handle) (Outcome, error) {
	var outcome Outcome

	facilitator, speakers, err := ExtractFacilitator(handles)
	if err != nil {
		return outcome, err
	}
	logger := e.logger.With(zap.String("session", session.ID()))
	logger.Info("debate started",
		zap.Int("speakers", len(speakers)),
		zap.Int("max_rounds", e.cfg.MaxRounds),
		zap.String("facilitator", facilitator.Card.Model),
	)

	for _, h := range handles {
		h.Agent.ClearContext()
	}
	for _, h := range speakers {
		h.Agent.AddContext(puzzle)
	}

	broadcaster := NewBroadcaster(session, facilitator, speakers)

	for round := 1; round <= e.cfg.MaxRounds; round++ {
		session.setRound(round)
		outcome.Rounds = round

		for _, speaker := range e.scheduler.Shuffle(speakers) {
			if message, ok := e.turn(ctx, logger, round, speaker); ok {
				broadcaster.Broadcast(round, speaker, message)
				facilitator.Agent.AddContext(message)
			}
			if err := e.pause(ctx, e.cfg.TurnDelay); err != nil {
				outcome.Reason = ReasonCancelled
				return outcome, err
			}
		}

		terminal := false
		if message, ok := e.turn(ctx, logger, round, facilitator); ok {
			broadcaster.Broadcast(round, facilitator, message)
			terminal = IsTerminal(message)
		}
		if err := e.pause(ctx, e.cfg.TurnDelay); err != nil {
			outcome.Reason = ReasonCancelled
			return outcome, err
		}

		if terminal {
			logger.Info("facilitator settled the answer", zap.Int("round", round))
			outcome.Reason = ReasonTerminal
			return outcome, nil
		}
		logger.Debug("round finished without an answer", zap.Int("round", round))
	}

	logger.Info("round bound reached", zap.Int("rounds", outcome.Rounds))
	outcome.Reason = ReasonExhausted
	return outcome, nil
}

// turn asks one participant to speak. Failures, including panics inside
// the agent, are converted to TransientCallError and swallowed.
func (e *Engine) turn(ctx context.Context, logger *zap.Logger, round int, h *Handle) (message string, ok bool) {
	role := string(h.Card.Role)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.fail(logger, round, h, fmt.Errorf("agent panic: %v", r), time.Since(start))
			message, ok = "", false
		}
	}()

	message, err := h.Agent.Respond(ctx, e.cfg.Prompt)
	if err == nil && strings.TrimSpace(message) == "" {
		err = errors.New("empty response")
	}
	elapsed := time.Since(start)
	if err != nil {
		e.fail(logger, round, h, err, elapsed)
		return "", false
	}

	e.recorder.TurnObserved(role, true, elapsed)
	logger.Debug("turn taken",
		zap.Int("round", round),
		zap.String("role", role),
		zap.String("model", h.Card.Model),
		zap.Duration("elapsed", elapsed),
	)
	return message, true
}

func (e *Engine) fail(logger *zap.Logger, round int, h *Handle, err error, elapsed time.Duration) {
	callErr := &TransientCallError{Speaker: h.Card.String(), Round: round, Err: err}
	e.recorder.TurnObserved(string(h.Card.Role), false, elapsed)
	logger.Warn("turn skipped", zap.Error(callErr))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
