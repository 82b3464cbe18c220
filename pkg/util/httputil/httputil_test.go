package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryParams(t *testing.T) {
	qp := NewQueryParams(url.Values{
		"gpuCount":  []string{"10000"},
		"gpuModel":  []string{"gb200"},
		"enableDPU": []string{"yes"},
	})

	assert.True(t, qp.Has("gpuCount"))
	assert.False(t, qp.Has("region"))
	assert.Equal(t, 10000, qp.GetInt("gpuCount", 1024))
	assert.Equal(t, "gb200", qp.Get("gpuModel", "h100"))
	assert.False(t, qp.GetBool("enableDPU", false))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/admin/access-logs", nil)
	_, ok := BearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Bearer secret-token")
	token, ok := BearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "secret-token", token)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = BearerToken(r)
	assert.False(t, ok)
}

func TestGetUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/tco", nil)
	assert.Equal(t, "anonymous", GetUser(r))

	r.Header.Set("X-User", "planner@example.com")
	assert.Equal(t, "planner@example.com", GetUser(r))

	r = r.WithContext(context.WithValue(r.Context(), ContextUser, "sso-user"))
	assert.Equal(t, "sso-user", GetUser(r))
}

func TestRateLimitedRetryFor(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	assert.True(t, IsRateLimitedResponse(resp))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, RateLimitedRetryFor(resp, time.Second, 0))

	resp.Header.Del("Retry-After")
	assert.Equal(t, 4*time.Second, RateLimitedRetryFor(resp, time.Second, 2))

	assert.Equal(t, time.Second, RateLimitedRetryFor(nil, time.Second, 0))
}
