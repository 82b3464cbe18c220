package httputil

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opencost/gputco/pkg/util/mapper"
)

//--------------------------------------------------------------------------
//  QueryParams
//--------------------------------------------------------------------------

// QueryParams reads typed request query parameters with defaults.
type QueryParams = mapper.PrimitiveMapReader

// queryValues adapts url.Values to mapper.Getter
type queryValues url.Values

func (qv queryValues) Get(key string) string {
	return url.Values(qv).Get(key)
}

func (qv queryValues) Has(key string) bool {
	_, ok := qv[key]
	return ok
}

// NewQueryParams creates a primitive map using the request query parameters
func NewQueryParams(values url.Values) QueryParams {
	return mapper.NewMapper(queryValues(values))
}

//--------------------------------------------------------------------------
//  HTTP Context Utilities
//--------------------------------------------------------------------------

type contextKey string

// ContextUser carries an authenticated caller identity set by upstream middleware.
const ContextUser contextKey = "User"

// GetUser extracts the caller identity from the X-User header, falling back to "anonymous".
func GetUser(r *http.Request) string {
	if user, ok := r.Context().Value(ContextUser).(string); ok && user != "" {
		return user
	}
	if user := strings.TrimSpace(r.Header.Get("X-User")); user != "" {
		return user
	}
	return "anonymous"
}

//--------------------------------------------------------------------------
//  Auth
//--------------------------------------------------------------------------

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

//--------------------------------------------------------------------------
//  Rate Limiting
//--------------------------------------------------------------------------

// RateLimitedRetryFor returns the parsed Retry-After header relative to the current time. If the
// header does not exist, an exponential backoff from defaultWait is returned.
func RateLimitedRetryFor(resp *http.Response, defaultWait time.Duration, retry int) time.Duration {
	if resp == nil || resp.Header == nil {
		return ExponentialBackoffWaitFor(defaultWait, retry)
	}

	// Retry-After is either the number of seconds to wait or a target datetime (RFC1123)
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return ExponentialBackoffWaitFor(defaultWait, retry)
	}

	seconds, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		return time.Duration(seconds) * time.Second
	}

	t, err := time.Parse(time.RFC1123, value)
	if err == nil {
		result := time.Until(t)
		if result < 0 {
			return 0
		}
		return result
	}

	return defaultWait
}

// ExponentialBackoffWaitFor returns defaultWait * 2^retry.
func ExponentialBackoffWaitFor(defaultWait time.Duration, retry int) time.Duration {
	return time.Duration(math.Pow(2, float64(retry))*float64(defaultWait.Milliseconds())) * time.Millisecond
}

// IsRateLimitedResponse returns true if the status code is a 429 (TooManyRequests)
func IsRateLimitedResponse(resp *http.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusTooManyRequests
}
