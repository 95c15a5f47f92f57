package debate

import (
	"context"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// Agent is the conversational capability behind one card.
type Agent interface {
	// Respond asks the agent to speak. Any error is treated as transient.
	Respond(ctx context.Context, prompt string) (string, error)
	// AddContext appends another participant's output to the agent's view
	// of the conversation.
	AddContext(message string)
	// ClearContext forgets the conversation.
	ClearContext()
}

// AgentFactory builds the agent that plays a card.
type AgentFactory interface {
	NewAgent(ctx context.Context, card model.Participant) (Agent, error)
}

// AgentFactoryFunc adapts a function to AgentFactory.
type AgentFactoryFunc func(ctx context.Context, card model.Participant) (Agent, error)

// NewAgent calls f.
func (f AgentFactoryFunc) NewAgent(ctx context.Context, card model.Participant) (Agent, error) {
	return f(ctx, card)
}

// Handle binds a card to its live agent for one run. Handles are compared
// by pointer, so two identical cards remain distinct participants.
type Handle struct {
	Card  model.Participant
	Agent Agent
}

// NewHandles builds one handle per card, in configuration order.
func NewHandles(ctx context.Context, factory AgentFactory, cards []model.Participant) ([]*Handle, error) {
	handles := make([]*Handle, 0, len(cards))
	for _, card := range cards {
		agent, err := factory.NewAgent(ctx, card)
		if err != nil {
			return nil, err
		}
		handles = append(handles, &Handle{Card: card, Agent: agent})
	}
	return handles, nil
}
