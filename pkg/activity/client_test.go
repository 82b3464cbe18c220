package activity

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/log"
)

type recorderFunc func(Event) error

func (f recorderFunc) Record(e Event) error { return f(e) }

func TestClient_DeliversEvents(t *testing.T) {
	var lock sync.Mutex
	var got []string

	c := NewClient(recorderFunc(func(e Event) error {
		lock.Lock()
		defer lock.Unlock()
		got = append(got, e.User)
		return nil
	}), nil)

	for _, user := range []string{"ana", "bo", "cy"} {
		c.Log(NewEvent(EventCalculation, user, true, nil))
	}

	require.NoError(t, c.Close(context.Background()))

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, []string{"ana", "bo", "cy"}, got)
	assert.Zero(t, c.Dropped())
}

func TestClient_DropsWhenFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var delivered int32

	var once sync.Once
	c := NewClient(recorderFunc(func(e Event) error {
		once.Do(func() { close(started) })
		<-release
		atomic.AddInt32(&delivered, 1)
		return nil
	}), &ClientOpts{BufferSize: 1, Attempts: 1})

	c.Log(NewEvent(EventCalculation, "first", true, nil))
	<-started

	c.Log(NewEvent(EventCalculation, "buffered", true, nil))
	c.Log(NewEvent(EventCalculation, "dropped", true, nil))
	c.Log(NewEvent(EventCalculation, "dropped", true, nil))

	assert.Equal(t, uint64(2), c.Dropped())

	close(release)
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&delivered))

	// logging after close never blocks
	c.Log(NewEvent(EventCalculation, "late", true, nil))
	assert.Equal(t, uint64(3), c.Dropped())
}

func TestClient_DropAfterCloseLogsClosed(t *testing.T) {
	original := *log.GetLogger()
	t.Cleanup(func() { log.SetLogger(&original) })

	var buf bytes.Buffer
	l := zerolog.New(&buf)
	log.SetLogger(&l)

	c := NewClient(recorderFunc(func(Event) error { return nil }), nil)
	require.NoError(t, c.Close(context.Background()))

	c.Log(NewEvent(EventTabNavigation, "ana", true, nil))
	assert.Equal(t, uint64(1), c.Dropped())
	assert.Contains(t, buf.String(), "Activity client is closed, dropped tab_navigation event")
	assert.NotContains(t, buf.String(), "buffer full")
}

func TestClient_Retries(t *testing.T) {
	var calls int32
	var results []bool
	var lock sync.Mutex

	c := NewClient(recorderFunc(func(e Event) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("unavailable")
		}
		return nil
	}), &ClientOpts{
		BufferSize: 4,
		Attempts:   3,
		RetryDelay: time.Millisecond,
		OnDelivered: func(success bool) {
			lock.Lock()
			defer lock.Unlock()
			results = append(results, success)
		},
	})

	c.Log(NewEvent(EventOverrideChanged, "ana", true, nil))
	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []bool{true}, results)
}

func TestClient_CloseHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewClient(recorderFunc(func(e Event) error {
		<-release
		return nil
	}), &ClientOpts{BufferSize: 4, Attempts: 1})

	c.Log(NewEvent(EventCalculation, "ana", true, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, c.Close(ctx), context.DeadlineExceeded)
}

func TestHTTPRecorder(t *testing.T) {
	server, logger := newTestServer(t, "ingest", "")

	require.NoError(t, NewHTTPRecorder(server.URL+"/", "ingest").Record(NewEvent(EventTabNavigation, "ana", true, map[string]string{"tab": "network"})))
	assert.Error(t, NewHTTPRecorder(server.URL, "wrong").Record(NewEvent(EventTabNavigation, "ana", true, nil)))

	events, err := logger.Query(QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]string{"tab": "network"}, events[0].Details)
}

func TestHTTPRecorder_RateLimited(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hr := NewHTTPRecorder(server.URL, "")

	err := hr.Record(NewEvent(EventCalculation, "ana", true, nil))
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, time.Duration(0), rl.RetryAfter)

	c := NewClient(hr, &ClientOpts{BufferSize: 4, Attempts: 3, RetryDelay: time.Millisecond})
	c.Log(NewEvent(EventCalculation, "ana", true, nil))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
