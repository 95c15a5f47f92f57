package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusConflict, "debate already in progress")

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"debate already in progress"}`, resp.Body.String())
}

func TestSendSSEEvent(t *testing.T) {
	resp := httptest.NewRecorder()
	SetupSSEHeaders(resp)

	require.NoError(t, SendSSEEvent(resp, resp, "entry", map[string]int{"seq": 1}))
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	assert.Equal(t, "event: entry\ndata: {\"seq\":1}\n\n", resp.Body.String())
	assert.True(t, resp.Flushed)

	assert.Error(t, SendSSEEvent(resp, resp, "bad", make(chan int)))
}
