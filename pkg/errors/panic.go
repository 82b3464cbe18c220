package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
)

//--------------------------------------------------------------------------
//  PanicType
//--------------------------------------------------------------------------

// PanicType defines the context in which the panic occurred
type PanicType int

const (
	PanicTypeDefault PanicType = iota
	PanicTypeHTTP
)

func (pt PanicType) String() string {
	return []string{"PanicTypeDefault", "PanicTypeHTTP"}[pt]
}

//--------------------------------------------------------------------------
//  Panic
//--------------------------------------------------------------------------

// Panic represents a panic that occurred, captured by a recovery.
type Panic struct {
	Error interface{}
	Stack string
	Type  PanicType
	Path  string
}

// PanicHandler receives a captured Panic. Handlers run synchronously on the panicking goroutine
// after recovery.
type PanicHandler = func(p Panic)

var (
	handlerLock sync.RWMutex
	handler     PanicHandler
)

// SetPanicHandler sets the handler that is executed when any panic is captured by HandlePanic or
// the HTTP middleware. Setting a second handler is an error.
func SetPanicHandler(h PanicHandler) error {
	handlerLock.Lock()
	defer handlerLock.Unlock()

	if handler != nil {
		return fmt.Errorf("panic handler has already been set")
	}
	handler = h
	return nil
}

func currentHandler() PanicHandler {
	handlerLock.RLock()
	defer handlerLock.RUnlock()
	return handler
}

// PanicHandlerMiddleware wraps an http.Handler, recovering panics into a 500 response.
func PanicHandlerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		defer HandleHTTPPanic(rw, rq)

		next.ServeHTTP(rw, rq)
	})
}

// HandlePanic must be deferred directly. It recovers a panic on the current goroutine and reports it
// to the registered handler.
func HandlePanic() {
	// recover() only works when called directly by the deferred func
	if err := recover(); err != nil {
		dispatch(err, PanicTypeDefault, "")
	}
}

// HandleHTTPPanic must be deferred directly in http middleware.
func HandleHTTPPanic(rw http.ResponseWriter, rq *http.Request) {
	if err := recover(); err != nil {
		rw.WriteHeader(http.StatusInternalServerError)

		path := ""
		if rq != nil && rq.URL != nil {
			path = rq.URL.Path
		}
		dispatch(err, PanicTypeHTTP, path)
	}
}

func dispatch(err interface{}, panicType PanicType, path string) {
	h := currentHandler()
	if h == nil {
		return
	}

	stack := make([]byte, 1024*8)
	stack = stack[:runtime.Stack(stack, false)]

	h(Panic{
		Error: err,
		Stack: string(stack),
		Type:  panicType,
		Path:  path,
	})
}
