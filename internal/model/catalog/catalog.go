package catalog

import "github.com/zhouzirui/roundtable/backend/internal/model/debate"

// ModelOption maps a card label to the chat model that serves it.
// An empty Model means the service-wide default model.
type ModelOption struct {
	Label       string   `json:"label" yaml:"label"`
	Model       string   `json:"model,omitempty" yaml:"model"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature"`
}

// RoleSpec carries the behavioural instructions of one role.
type RoleSpec struct {
	Role         debate.Role `json:"role" yaml:"role"`
	Instructions string      `json:"instructions" yaml:"instructions"`
}

// Catalog is everything the card picker offers.
type Catalog struct {
	Models        []ModelOption `json:"models" yaml:"models"`
	Expertises    []string      `json:"expertises" yaml:"expertises"`
	Personalities []string      `json:"personalities" yaml:"personalities"`
	Roles         []RoleSpec    `json:"roles" yaml:"roles"`
}

// Seed provides the built-in catalog.
func Seed() Catalog {
	return Catalog{
		Models: []ModelOption{
			{Label: "Gemini", Description: "Fast generalist, good at quick synthesis."},
			{Label: "Llama", Description: "Open-weight model, steady step-by-step reasoning."},
			{Label: "Qwen", Description: "Strong at mathematics and structured problems."},
			{Label: "ChatGPT", Description: "Broad knowledge, careful explanations."},
			{Label: "Kimi", Description: "Long-context reader, keeps track of details."},
		},
		Expertises: []string{
			"Mathematics",
			"Logic",
			"Computer Science",
			"Physics",
			"Linguistics",
			"Philosophy",
			"History",
			"Game Theory",
		},
		Personalities: []string{
			"Analytical",
			"Skeptical",
			"Optimistic",
			"Cautious",
			"Bold",
			"Pedantic",
			"Curious",
			"Stubborn",
		},
		Roles: []RoleSpec{
			{
				Role:         debate.RoleFacilitator,
				Instructions: "You are making the final decision - the solution that will solve the puzzle. That is your main focus. Listen to your teammates, but be decisive. VERY IMPORTANT: whenever you speak, end with one of the following: 'We need more discussion' or 'That is the answer.'. This is EXTREMELY important. Whatever you do, do not end with something other than this.",
			},
			{
				Role:         debate.RoleCritic,
				Instructions: "Be critical and analytical of your teammates' contributions. Your goal is to achieve the team's objective of solving the puzzle by pushing your team to think of new ideas and challenging current ones.",
			},
			{
				Role:         debate.RoleReasoner,
				Instructions: "Provide input on what you think the solution is. In all situations, contribute the most logical ideas that will help your team solve the puzzle.",
			},
			{
				Role:         debate.RoleStateTracker,
				Instructions: "Your job is not to reason, but to keep your teammates in check. Pay close attention to everything that's being discussed to make sure none of your teammates are fabricating facts. If that happens, remind them of the facts to guide them back on track.",
			},
		},
	}
}
