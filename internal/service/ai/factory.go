package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/zhouzirui/roundtable/backend/internal/config"
	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
	debateservice "github.com/zhouzirui/roundtable/backend/internal/service/debate"
)

// ModelBuilder creates the chat model serving one catalog label.
type ModelBuilder func(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error)

// ArkModelBuilder is the production builder backed by Volcengine Ark.
func ArkModelBuilder(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	return cfg.NewChatModel(ctx)
}

// Factory turns cards into ChatAgents. Chat models are created lazily, once
// per catalog label, and shared by every agent using that label.
type Factory struct {
	cfg     config.AIConfig
	opts    AgentOptions
	catalog catalog.Store
	prompts *RolePromptBuilder
	build   ModelBuilder
	logger  *zap.Logger

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithModelBuilder replaces the Ark builder.
func WithModelBuilder(build ModelBuilder) FactoryOption {
	return func(f *Factory) { f.build = build }
}

// WithLogger sets the factory logger.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory creates a factory over the given catalog and base AI config.
func NewFactory(cfg config.AIConfig, store catalog.Store, opts AgentOptions, options ...FactoryOption) *Factory {
	f := &Factory{
		cfg:     cfg,
		opts:    opts,
		catalog: store,
		prompts: NewRolePromptBuilder(store),
		build:   ArkModelBuilder,
		logger:  zap.NewNop(),
		models:  make(map[string]model.BaseChatModel),
	}
	for _, opt := range options {
		opt(f)
	}
	f.logger = f.logger.With(zap.String("component", "agent_factory"))
	return f
}

// ValidateCard rejects cards whose model label is not in the catalog.
func (f *Factory) ValidateCard(card debate.Participant) error {
	if _, ok := f.catalog.FindModel(card.Model); !ok {
		return fmt.Errorf("unknown model %q", card.Model)
	}
	return nil
}

// NewAgent builds the agent playing card.
func (f *Factory) NewAgent(ctx context.Context, card debate.Participant) (debateservice.Agent, error) {
	chatModel, err := f.modelFor(ctx, card.Model)
	if err != nil {
		return nil, err
	}
	agent, err := NewChatAgent(ctx, chatModel, card, f.prompts.BuildSystemPrompt(card), f.opts)
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (f *Factory) modelFor(ctx context.Context, label string) (model.BaseChatModel, error) {
	option, ok := f.catalog.FindModel(label)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", label)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := option.Label
	if chatModel, ok := f.models[key]; ok {
		return chatModel, nil
	}

	cfg := f.cfg.ForModel(option.Model, option.Temperature)
	if !cfg.Enabled() {
		return nil, fmt.Errorf("model %q: %w", option.Label, debateservice.ErrNoBackend)
	}

	chatModel, err := f.build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %q: %w", option.Label, err)
	}
	f.models[key] = chatModel
	f.logger.Info("chat model ready",
		zap.String("label", option.Label),
		zap.String("model", cfg.Model),
	)
	return chatModel, nil
}
