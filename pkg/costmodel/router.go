package costmodel

import (
	"fmt"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/opencost/gputco/pkg/activity"
	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/env"
	"github.com/opencost/gputco/pkg/errors"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/overrides"
	"github.com/opencost/gputco/pkg/util/httputil"
	"github.com/opencost/gputco/pkg/util/json"
	"github.com/opencost/gputco/pkg/version"
)

const tracerName = "github.com/opencost/gputco/pkg/costmodel"

// Accesses defines a singleton application instance, providing access to the catalogs, the
// persisted override state, the activity logger, and caches.
type Accesses struct {
	Router    *httprouter.Router
	Catalogs  *catalog.Catalogs
	Overrides *overrides.Store
	Activity  *activity.Client

	// ResultCache stores *Results by a hash of the configuration and the overrides used.
	ResultCache *cache.Cache

	calculations singleflight.Group
	tracer       trace.Tracer
}

// AccessesOpts carries the collaborators created by the server command. Everything except
// Catalogs is optional.
type AccessesOpts struct {
	Catalogs *catalog.Catalogs

	// Overrides enables the override and service tier endpoints and applies persisted values
	// to every calculation.
	Overrides *overrides.Store

	// Activity receives calculation and override change events.
	Activity *activity.Client

	// ActivityLogger enables POST /activity and GET /admin/access-logs.
	ActivityLogger *activity.Logger
	ActivityToken  string
	AdminToken     string

	// ResultCacheDuration of zero disables result caching.
	ResultCacheDuration time.Duration
}

type Response struct {
	Code    int         `json:"code"`
	Status  string      `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

func WrapData(data interface{}, err error) []byte {
	return WrapDataWithWarning(data, err, "")
}

func WrapDataWithWarning(data interface{}, err error, warning string) []byte {
	var resp []byte

	if err != nil {
		log.Infof("Error returned to client: %s", err.Error())
		resp, _ = json.Marshal(&Response{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: err.Error(),
			Warning: warning,
			Data:    data,
		})
	} else {
		resp, _ = json.Marshal(&Response{
			Code:    http.StatusOK,
			Status:  "success",
			Data:    data,
			Warning: warning,
		})
	}

	return resp
}

// writeError writes an error envelope with a matching HTTP status.
func writeError(w http.ResponseWriter, code int, err error) {
	log.Infof("Error returned to client: %s", err.Error())
	resp, _ := json.Marshal(&Response{
		Code:    code,
		Status:  "error",
		Message: err.Error(),
	})

	w.WriteHeader(code)
	w.Write(resp)
}

// captures the panic event in sentry
func capturePanicEvent(err string, stack string) {
	msg := fmt.Sprintf("Panic: %s\nStackTrace: %s\n", err, stack)
	log.Errorf("%s", msg)
	sentry.CurrentHub().CaptureEvent(&sentry.Event{
		Level:   sentry.LevelError,
		Message: msg,
	})
	sentry.Flush(5 * time.Second)
}

// handle any panics reported by the errors package
func handlePanic(p errors.Panic) {
	switch err := p.Error.(type) {
	case error:
		capturePanicEvent(err.Error(), p.Stack)
	case string:
		capturePanicEvent(err, p.Stack)
	default:
		capturePanicEvent(fmt.Sprintf("%v", err), p.Stack)
	}
}

// initErrorReporting enables sentry when a DSN is configured.
func initErrorReporting() {
	dsn := env.GetSentryDSN()
	if dsn == "" {
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env.GetSentryEnvironment(),
		Release:     version.Version,
	})
	if err != nil {
		log.Warnf("Failed to initialize sentry for error reporting: %s", err)
		return
	}

	if err := errors.SetPanicHandler(handlePanic); err != nil {
		log.Warnf("Failed to set panic handler: %s", err)
	}
}

func Initialize(opts AccessesOpts) *Accesses {
	log.Infof("Starting %s", version.FriendlyVersion())

	initErrorReporting()

	catalogs := opts.Catalogs
	if catalogs == nil {
		catalogs = catalog.Default()
	}

	// cache.New with a zero expiration would never expire entries; a disabled cache is nil
	var resultCache *cache.Cache
	if opts.ResultCacheDuration > 0 {
		resultCache = cache.New(opts.ResultCacheDuration, 2*opts.ResultCacheDuration)
	}

	a := &Accesses{
		Router:      httprouter.New(),
		Catalogs:    catalogs,
		Overrides:   opts.Overrides,
		Activity:    opts.Activity,
		ResultCache: resultCache,
		tracer:      otel.Tracer(tracerName),
	}

	a.Router.GET("/healthz", a.Healthz)
	a.Router.GET("/tco", a.ComputeTCOHandler)
	a.Router.POST("/tco", a.ComputeTCOHandler)
	a.Router.GET("/catalog", a.GetCatalog)
	a.Router.GET("/catalog/:kind", a.GetCatalogKind)
	a.Router.GET("/software/stacks/:id/cost", a.GetStackCost)

	if a.Overrides != nil {
		a.Overrides.OnChange(a.flushResults)
		overrides.NewEndpoints(a.Overrides, a.auditOverrideChange).Register(a.Router)
	}

	if opts.ActivityLogger != nil {
		activity.NewActivityEndpoints(opts.ActivityLogger, opts.ActivityToken, opts.AdminToken).Register(a.Router)
	}

	return a
}

func (a *Accesses) flushResults() {
	if a.ResultCache != nil {
		a.ResultCache.Flush()
		log.Debugf("Flushed result cache after override change")
	}
}

func (a *Accesses) auditOverrideChange(r *http.Request, change string, err error) {
	details := map[string]string{"change": change}
	if err != nil {
		details["error"] = err.Error()
	}
	a.logActivity(r, activity.EventOverrideChanged, err == nil, details)
}

func (a *Accesses) logActivity(r *http.Request, eventType activity.EventType, success bool, details map[string]string) {
	if a.Activity == nil {
		return
	}
	a.Activity.Log(activity.NewEvent(eventType, httputil.GetUser(r), success, details))
}
