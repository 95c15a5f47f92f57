package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

func TestExtractFacilitatorTakesFirstMatch(t *testing.T) {
	critic := handle(model.RoleCritic, &scriptedAgent{name: "critic"})
	first := handle(model.RoleFacilitator, &scriptedAgent{name: "first"})
	second := handle(model.RoleFacilitator, &scriptedAgent{name: "second"})
	reasoner := handle(model.RoleReasoner, &scriptedAgent{name: "reasoner"})

	facilitator, speakers, err := ExtractFacilitator([]*Handle{critic, first, second, reasoner})
	require.NoError(t, err)

	assert.Same(t, first, facilitator)
	require.Len(t, speakers, 3)
	assert.Same(t, critic, speakers[0])
	assert.Same(t, second, speakers[1])
	assert.Same(t, reasoner, speakers[2])
}

func TestExtractFacilitatorWithoutOne(t *testing.T) {
	_, _, err := ExtractFacilitator([]*Handle{handle(model.RoleCritic, &scriptedAgent{name: "c"})})
	assert.ErrorIs(t, err, ErrNoFacilitator)

	_, _, err = ExtractFacilitator(nil)
	assert.ErrorIs(t, err, ErrNoFacilitator)
}

func TestShuffleIsAPermutationAndLeavesInputAlone(t *testing.T) {
	var speakers []*Handle
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		speakers = append(speakers, handle(model.RoleReasoner, &scriptedAgent{name: name}))
	}
	original := append([]*Handle(nil), speakers...)

	s := NewSeededScheduler(42)
	for i := 0; i < 20; i++ {
		order := s.Shuffle(speakers)
		assert.ElementsMatch(t, speakers, order)
	}
	assert.Equal(t, original, speakers)
}

func TestShuffleVariesAcrossRounds(t *testing.T) {
	var speakers []*Handle
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		speakers = append(speakers, handle(model.RoleReasoner, &scriptedAgent{name: name}))
	}

	s := NewSeededScheduler(1)
	firsts := map[*Handle]bool{}
	for i := 0; i < 50; i++ {
		firsts[s.Shuffle(speakers)[0]] = true
	}
	assert.Greater(t, len(firsts), 1)

	var global *Scheduler
	assert.Len(t, global.Shuffle(speakers), len(speakers))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal("I am the facilitator. That is the answer."))
	assert.True(t, IsTerminal("THAT IS THE ANSWER"))
	assert.False(t, IsTerminal("We need more discussion"))
	assert.False(t, IsTerminal("that is the"))
	assert.False(t, IsTerminal(""))
}
