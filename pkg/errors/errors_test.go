package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.False(t, ec.IsError())
	assert.Equal(t, "", ec.Error())

	ec.Report(nil)
	assert.False(t, ec.IsError())

	ec.Report(fmt.Errorf("activity store unavailable"))
	ec.Report(New("bucket config missing"))

	require.True(t, ec.IsError())
	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, "activity store unavailable; bucket config missing", ec.Error())
}

func TestPanicHandlerMiddleware(t *testing.T) {
	var captured []Panic
	handlerLock.Lock()
	handler = func(p Panic) { captured = append(captured, p) }
	handlerLock.Unlock()
	t.Cleanup(func() {
		handlerLock.Lock()
		handler = nil
		handlerLock.Unlock()
	})

	h := PanicHandlerMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tco", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, captured, 1)
	assert.Equal(t, "boom", captured[0].Error)
	assert.Equal(t, PanicTypeHTTP, captured[0].Type)
	assert.Equal(t, "/tco", captured[0].Path)
	assert.NotEmpty(t, captured[0].Stack)

	assert.Error(t, SetPanicHandler(func(Panic) {}))
}

func TestHandlePanic(t *testing.T) {
	captured := make(chan Panic, 1)
	handlerLock.Lock()
	handler = func(p Panic) { captured <- p }
	handlerLock.Unlock()
	t.Cleanup(func() {
		handlerLock.Lock()
		handler = nil
		handlerLock.Unlock()
	})

	go func() {
		defer HandlePanic()
		panic("watcher failed")
	}()

	p := <-captured
	assert.Equal(t, "watcher failed", p.Error)
	assert.Equal(t, PanicTypeDefault, p.Type)
	assert.Empty(t, p.Path)
}
