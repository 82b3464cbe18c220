package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/kubecost/events"
)

// ResponseMetricMiddleware times every request and dispatches an HttpHandlerMetricEvent with
// its route label, status and response size.
func ResponseMetricMiddleware(handler http.Handler) http.Handler {
	dispatcher := events.GlobalDispatcherFor[HttpHandlerMetricEvent]()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w}

		start := time.Now()
		handler.ServeHTTP(sr, r)

		dispatcher.Dispatch(HttpHandlerMetricEvent{
			Handler:      HandlerLabel(r.URL.Path, sr.StatusCode()),
			Method:       r.Method,
			Code:         sr.StatusCode(),
			ResponseTime: time.Since(start),
			ResponseSize: sr.size,
		})
	})
}

// parameterizedRoutes maps a first path segment to its route label and the minimum segment
// count at which the route carries a parameter.
var parameterizedRoutes = map[string]struct {
	label    string
	segments int
}{
	"overrides": {"/overrides/:key", 2},
	"catalog":   {"/catalog/:kind", 2},
	"software":  {"/software/stacks/:id/cost", 3},
}

// HandlerLabel reduces a request path to a bounded label: unmatched requests collapse to one
// value and parameterized routes keep only their fixed prefix.
func HandlerLabel(path string, code int) string {
	if code == http.StatusNotFound || code == http.StatusMethodNotAllowed {
		return "unmatched"
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if route, ok := parameterizedRoutes[segments[0]]; ok && len(segments) >= route.segments {
		return route.label
	}
	return "/" + strings.Join(segments, "/")
}

// statusRecorder remembers the status code and counts the body bytes of a response.
type statusRecorder struct {
	http.ResponseWriter
	code int
	size uint64
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.size += uint64(n)
	return n, err
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// StatusCode is the written status, http.StatusOK when the handler never called WriteHeader.
func (sr *statusRecorder) StatusCode() int {
	if sr.code == 0 {
		return http.StatusOK
	}
	return sr.code
}
