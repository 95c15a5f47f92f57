package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// teamBriefing is shared by every card; the role paragraph and persona are
// filled in per participant.
const teamBriefing = `You are part of an elite reasoning team whose objective is to solve puzzles.
You will all take turns adding to the discussion. Work together to solve the problem. Once everyone has gone, the facilitator will decide if there should be another round of discussion.
Your role is %s. %s Your personality is %s. Your expertise is %s.
During discussion, act as someone with your personality and expertise would act. Be super concise in your speech. Try your best to go under 600 chars.
Everytime you speak, let everyone know your role in the following format : 'I am the <role>', where role is one of the following: %s. And remember, don't break character.
Follow the rules, work together, and support the facilitator until they can deliver the solution.
Before you are told to speak, you will be given the conversation that is currently unfolding. Don't hallucinate please.`

// RolePromptBuilder renders the system instructions of a card.
type RolePromptBuilder struct {
	catalog catalog.Store
}

// NewRolePromptBuilder reads role instructions from store.
func NewRolePromptBuilder(store catalog.Store) *RolePromptBuilder {
	return &RolePromptBuilder{catalog: store}
}

// BuildSystemPrompt creates the system prompt for a participant
func (b *RolePromptBuilder) BuildSystemPrompt(card debate.Participant) string {
	instructions, ok := b.catalog.RoleInstructions(card.Role)
	if !ok {
		// Fallback for roles the catalog file left out
		instructions, _ = catalog.NewMemoryStore(catalog.Seed()).RoleInstructions(card.Role)
	}

	return fmt.Sprintf(teamBriefing,
		card.Role.Label(),
		strings.TrimSpace(instructions),
		card.Personality,
		card.Expertise,
		roleLabels(),
	)
}

func roleLabels() string {
	roles := debate.Roles()
	labels := make([]string, 0, len(roles))
	for _, r := range roles {
		labels = append(labels, r.Label())
	}
	last := len(labels) - 1
	return strings.Join(labels[:last], ", ") + ", or " + labels[last]
}
