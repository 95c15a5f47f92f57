package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
)

func TestGetCatalog(t *testing.T) {
	r := chi.NewRouter()
	New(catalog.NewMemoryStore(catalog.Seed())).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Models []struct {
			Label string `json:"label"`
		} `json:"models"`
		Expertises []string `json:"expertises"`
		Roles      []struct {
			Role   string `json:"role"`
			Label  string `json:"label"`
			Colour string `json:"colour"`
		} `json:"roles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.NotEmpty(t, body.Models)
	assert.NotEmpty(t, body.Expertises)
	require.NotEmpty(t, body.Roles)
	for _, role := range body.Roles {
		if role.Role == "stateTracker" {
			assert.Equal(t, "state tracker", role.Label)
			assert.Equal(t, "#ffff00", role.Colour)
		}
	}
}
