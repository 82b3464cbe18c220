package overrides

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

type auditEntry struct {
	change  string
	success bool
}

func newTestRouter(t *testing.T) (*httprouter.Router, *Store, *[]auditEntry) {
	t.Helper()

	s, _ := newTestStore(t)
	audits := &[]auditEntry{}
	e := NewEndpoints(s, func(r *http.Request, change string, err error) {
		*audits = append(*audits, auditEntry{change: change, success: err == nil})
	})

	router := httprouter.New()
	e.Register(router)
	return router, s, audits
}

func do(t *testing.T, router http.Handler, method, path, body string) (int, DataEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env DataEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestEndpoints_Overrides(t *testing.T) {
	router, s, audits := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/overrides", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{}, env.Data)

	code, env = do(t, router, http.MethodPut, "/overrides", `{"PUE": 1.25}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, map[string]interface{}{"pue": 1.25}, env.Data)

	code, _ = do(t, router, http.MethodPut, "/overrides/energyRate", `{"value": 0.09}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]float64{"pue": 1.25, "energyRate": 0.09}, s.Overrides())

	code, env = do(t, router, http.MethodPut, "/overrides/energyRate", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", env.Status)

	code, env = do(t, router, http.MethodPut, "/overrides/unknownKey", `{"value": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "unknown override")

	code, _ = do(t, router, http.MethodDelete, "/overrides", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, s.Overrides())

	assert.Equal(t, []auditEntry{
		{"overrides replaced", true},
		{"override energyRate set", true},
		{"override unknownKey set", false},
		{"overrides reset", true},
	}, *audits)
}

func TestEndpoints_MalformedBody(t *testing.T) {
	router, s, audits := newTestRouter(t)

	code, env := do(t, router, http.MethodPut, "/overrides", `{"pue": "high"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "decoding request body")
	assert.Empty(t, s.Overrides())
	assert.Empty(t, *audits)
}

func TestEndpoints_ServiceTiers(t *testing.T) {
	router, s, _ := newTestRouter(t)

	code, env := do(t, router, http.MethodPut, "/serviceTiers/distribution", `{"bare-metal": 70, "inference-api": 30}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"bare-metal": 70.0, "inference-api": 30.0}, env.Data)

	code, _ = do(t, router, http.MethodPut, "/serviceTiers/distribution", `{"bare-metal": -5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodPut, "/serviceTiers/modifiers", `{"storagePerformance":"performance","compliance":["soc2"]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Modifiers{StoragePerformance: "performance", Compliance: []string{"soc2"}}, s.Modifiers())

	code, env = do(t, router, http.MethodGet, "/serviceTiers/modifiers", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{
		"storagePerformance": "performance",
		"compliance":         []interface{}{"soc2"},
	}, env.Data)
}
