package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/roundtable/backend/internal/logging"
	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
	"github.com/zhouzirui/roundtable/backend/internal/service/ai"
	"github.com/zhouzirui/roundtable/backend/internal/service/debate"
)

const pollInterval = 100 * time.Millisecond

type runOptions struct {
	deckPath string
	puzzle   string
	rounds   int
	verbose  bool
}

// deckFile is the YAML layout of a deck:
//
//	agents:
//	  - model: Qwen
//	    expertise: Logic
//	    personality: Skeptical
//	    role: facilitator
type deckFile struct {
	Agents []model.Participant `yaml:"agents"`
}

func newRunCmd(catalogPath *string) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Debate a puzzle with a deck of cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, *catalogPath)
		},
	}
	cmd.Flags().StringVar(&opts.deckPath, "deck", "", "deck YAML file")
	cmd.Flags().StringVar(&opts.puzzle, "puzzle", "", "puzzle text")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 0, "maximum rounds (default $DEBATE_MAX_ROUNDS)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity to stderr")
	_ = cmd.MarkFlagRequired("deck")
	_ = cmd.MarkFlagRequired("puzzle")
	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions, catalogPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AI.Enabled() {
		return fmt.Errorf("%w: set ARK_MODEL and ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY)", debate.ErrNoBackend)
	}

	cards, err := loadDeck(opts.deckPath)
	if err != nil {
		return err
	}
	store, err := loadCatalog(catalogPath, cfg)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if opts.verbose {
		cfg.Log.Format = "console"
		logger = logging.New(cfg.Log)
	}
	defer logger.Sync()

	factory := ai.NewFactory(cfg.AI, store, ai.AgentOptions{
		ContextLimit: cfg.Debate.ContextLimit,
		TurnTimeout:  cfg.Debate.TurnTimeout,
	}, ai.WithLogger(logger))

	engineCfg := debate.Config{
		MaxRounds: cfg.Debate.MaxRounds,
		TurnDelay: cfg.Debate.TurnDelay,
		Prompt:    cfg.Debate.Prompt,
	}
	if opts.rounds > 0 {
		engineCfg.MaxRounds = opts.rounds
	}

	return runDebate(cmd.Context(), cmd.OutOrStdout(), debate.NewEngine(engineCfg, logger), factory, cards, opts.puzzle, logger)
}

func loadDeck(path string) ([]model.Participant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	var deck deckFile
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", path, err)
	}
	if len(deck.Agents) == 0 {
		return nil, errors.New("deck has no agents")
	}
	return deck.Agents, nil
}

// runDebate drives one local debate and prints result entries as they are
// queued. It returns once the run has finished and the queue is drained.
func runDebate(ctx context.Context, out io.Writer, engine *debate.Engine, factory debate.AgentFactory, cards []model.Participant, puzzle string, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	manager := debate.NewManager(ctx, engine, factory, logger)
	defer manager.Wait()

	id := debate.DefaultSessionID
	if err := manager.Configure(id, cards); err != nil {
		return err
	}
	if err := manager.Start(id, puzzle, debate.StartOptions{Local: true}); err != nil {
		return err
	}
	session, err := manager.Session(id)
	if err != nil {
		return err
	}

	for {
		entry, ok := session.Poll()
		if ok {
			printEntry(out, entry)
			continue
		}
		if !entry.Debating {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func printEntry(out io.Writer, entry model.ResultEntry) {
	speaker := string(entry.Role)
	if entry.Model != "" {
		speaker += "/" + entry.Model
	}
	fmt.Fprintf(out, "[%s] %s\n\n", speaker, strings.TrimSpace(entry.Message))
}
