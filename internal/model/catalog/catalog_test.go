package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

func TestSeedCoversEveryRole(t *testing.T) {
	store := NewMemoryStore(Seed())
	for _, role := range debate.Roles() {
		text, ok := store.RoleInstructions(role)
		assert.True(t, ok, role)
		assert.NotEmpty(t, text, role)
	}
}

func TestFindModelIgnoresCase(t *testing.T) {
	store := NewMemoryStore(Seed())

	m, ok := store.FindModel("  qwen ")
	require.True(t, ok)
	assert.Equal(t, "Qwen", m.Label)

	_, ok = store.FindModel("Claude")
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	c := store.Get()
	c.Models[0].Label = "mutated"
	c.Expertises = nil

	again := store.Get()
	assert.NotEqual(t, "mutated", again.Models[0].Label)
	assert.NotEmpty(t, again.Expertises)
}

func TestParseMergesOverSeed(t *testing.T) {
	c, err := Parse([]byte(`
models:
  - label: Qwen
    model: ep-qwen
    temperature: 0.2
roles:
  - role: critic
    instructions: Poke holes.
`))
	require.NoError(t, err)

	require.Len(t, c.Models, 1)
	assert.Equal(t, "ep-qwen", c.Models[0].Model)
	require.NotNil(t, c.Models[0].Temperature)
	assert.InDelta(t, 0.2, *c.Models[0].Temperature, 1e-9)
	assert.Equal(t, Seed().Expertises, c.Expertises)

	store := NewMemoryStore(c)
	text, _ := store.RoleInstructions(debate.RoleCritic)
	assert.Equal(t, "Poke holes.", text)
	text, _ = store.RoleInstructions(debate.RoleFacilitator)
	assert.Contains(t, text, "That is the answer.")
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"malformed":     "models: [",
		"missing label": "models:\n  - model: ep\n",
		"unknown role":  "roles:\n  - role: judge\n    instructions: x\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileRoundTrip(t *testing.T) {
	data, err := Marshal(Seed())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Seed(), c)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
