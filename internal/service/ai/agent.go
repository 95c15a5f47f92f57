package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// AgentOptions bounds each ChatAgent.
type AgentOptions struct {
	// ContextLimit caps the history replayed to the model on every turn.
	ContextLimit int
	// TurnTimeout bounds one Respond call; zero disables it.
	TurnTimeout time.Duration
}

// ChatAgent plays one card through an eino chain. Messages from the rest
// of the table are replayed as user turns and the agent's own replies as
// assistant turns. The first context message after a clear is the primer
// (the puzzle for speakers) and is never trimmed.
type ChatAgent struct {
	card   debate.Participant
	system string
	chain  compose.Runnable[map[string]any, *schema.Message]
	opts   AgentOptions

	mu      sync.Mutex
	primer  *schema.Message
	history []*schema.Message
}

// compileChain builds the prompt template + chat model pipeline.
func compileChain(ctx context.Context, chatModel model.BaseChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return runnable, nil
}

// NewChatAgent creates an agent for card on top of chatModel.
func NewChatAgent(ctx context.Context, chatModel model.BaseChatModel, card debate.Participant, system string, opts AgentOptions) (*ChatAgent, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	chain, err := compileChain(ctx, chatModel)
	if err != nil {
		return nil, err
	}
	return newChatAgent(chain, card, system, opts), nil
}

func newChatAgent(chain compose.Runnable[map[string]any, *schema.Message], card debate.Participant, system string, opts AgentOptions) *ChatAgent {
	if opts.ContextLimit <= 0 {
		opts.ContextLimit = 24
	}
	return &ChatAgent{
		card:   card,
		system: system,
		chain:  chain,
		opts:   opts,
	}
}

// Card returns the participant this agent plays.
func (a *ChatAgent) Card() debate.Participant {
	return a.card
}

// SystemPrompt returns the rendered role instructions.
func (a *ChatAgent) SystemPrompt() string {
	return a.system
}

// Respond runs the chain with the current history and remembers the reply.
func (a *ChatAgent) Respond(ctx context.Context, query string) (string, error) {
	if a.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.TurnTimeout)
		defer cancel()
	}

	input := map[string]any{
		"system":  a.system,
		"history": a.snapshot(),
		"query":   query,
	}

	response, err := a.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", errors.New("chat model returned no message")
	}

	content := strings.TrimSpace(response.Content)
	if content != "" {
		a.append(schema.AssistantMessage(content, nil))
	}
	return content, nil
}

// AddContext appends another participant's output.
func (a *ChatAgent) AddContext(message string) {
	msg := schema.UserMessage(message)

	a.mu.Lock()
	if a.primer == nil && len(a.history) == 0 {
		a.primer = msg
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.append(msg)
}

// ClearContext forgets the conversation, primer included.
func (a *ChatAgent) ClearContext() {
	a.mu.Lock()
	a.primer = nil
	a.history = nil
	a.mu.Unlock()
}

// History returns a copy of the remembered conversation.
func (a *ChatAgent) History() []*schema.Message {
	return a.snapshot()
}

func (a *ChatAgent) append(msg *schema.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	limit := a.opts.ContextLimit
	if a.primer != nil {
		limit--
	}
	a.history = append(a.history, msg)
	if overflow := len(a.history) - max(limit, 0); overflow > 0 {
		a.history = append([]*schema.Message(nil), a.history[overflow:]...)
	}
}

func (a *ChatAgent) snapshot() []*schema.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*schema.Message, 0, len(a.history)+1)
	if a.primer != nil {
		out = append(out, a.primer)
	}
	return append(out, a.history...)
}
