package activity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/util/json"
)

func newTestServer(t *testing.T, activityToken, adminToken string) (*httptest.Server, *Logger) {
	t.Helper()

	logger := NewLogger(NewMapDBEventStorage())
	router := httprouter.New()
	NewActivityEndpoints(logger, activityToken, adminToken).Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, logger
}

func request(t *testing.T, method, url, token, body string) (int, DataEnvelope) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-User", "ana")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env DataEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestPostActivity(t *testing.T) {
	server, logger := newTestServer(t, "ingest", "admin")

	code, _ := request(t, http.MethodPost, server.URL+"/activity", "", `{"type":"calculation"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = request(t, http.MethodPost, server.URL+"/activity", "wrong", `{"type":"calculation"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := request(t, http.MethodPost, server.URL+"/activity", "ingest", `{"type":"calculation","success":true,"details":{"gpuModel":"h100"}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	code, _ = request(t, http.MethodPost, server.URL+"/activity", "ingest", `{"type":"nap"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = request(t, http.MethodPost, server.URL+"/activity", "ingest", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	events, err := logger.Query(QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ana", events[0].User)
	assert.True(t, events[0].Success)
	assert.Equal(t, map[string]string{"gpuModel": "h100"}, events[0].Details)
}

func TestPostActivity_NoTokenConfigured(t *testing.T) {
	server, _ := newTestServer(t, "", "admin")

	code, _ := request(t, http.MethodPost, server.URL+"/activity", "", `{"type":"tab_navigation"}`)
	assert.Equal(t, http.StatusOK, code)
}

func TestGetAccessLogs(t *testing.T) {
	server, logger := newTestServer(t, "", "admin")

	require.NoError(t, logger.Record(eventAt(EventCalculation, "ana", 1)))
	require.NoError(t, logger.Record(eventAt(EventLoginAttempt, "bo", 2)))
	require.NoError(t, logger.Record(eventAt(EventCalculation, "cy", 3)))

	code, _ := request(t, http.MethodGet, server.URL+"/admin/access-logs", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := request(t, http.MethodGet, server.URL+"/admin/access-logs?type=calculation&limit=1", "admin", "")
	require.Equal(t, http.StatusOK, code)

	events, ok := env.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "cy", events[0].(map[string]interface{})["user"])

	code, _ = request(t, http.MethodGet, server.URL+"/admin/access-logs?type=nap", "admin", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetAccessLogs_Disabled(t *testing.T) {
	server, _ := newTestServer(t, "", "")

	code, env := request(t, http.MethodGet, server.URL+"/admin/access-logs", "anything", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, env.Message, "disabled")
}
