package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/opencost/gputco/pkg/activity"
	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/config"
	"github.com/opencost/gputco/pkg/costmodel"
	"github.com/opencost/gputco/pkg/env"
	gputcoerrors "github.com/opencost/gputco/pkg/errors"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/metrics"
	"github.com/opencost/gputco/pkg/overrides"
	"github.com/opencost/gputco/pkg/util/fileutil"
)

const (
	// configWatchInterval is how often persisted documents are polled for external changes.
	configWatchInterval = 10 * time.Second

	// shutdownTimeout bounds in-flight requests and activity delivery on shutdown.
	shutdownTimeout = 15 * time.Second

	activityBucket = "activity"
	activityTable  = "gputco_activity"
)

// ServerOpts contain configuration options that can be passed to the Execute() method
type ServerOpts struct {
	// Port overrides $API_PORT when non-zero.
	Port int
}

// Execute wires the catalogs, the override store, telemetry and the activity log into the API and
// serves it until ctx is cancelled or the process receives SIGINT/SIGTERM.
func Execute(ctx context.Context, opts *ServerOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogs, err := catalog.Load(catalog.LoadOpts{
		OverlayFile:    env.GetCatalogFile(),
		PriceSheetFile: env.GetCatalogPriceSheet(),
	})
	if err != nil {
		return fmt.Errorf("loading catalogs: %w", err)
	}

	cfm := config.NewConfigFileManager(&config.ConfigFileManagerOpts{
		BucketStoreConfig: env.GetOverrideStorageConfig(),
		LocalConfigPath:   env.GetConfigPath(),
	})

	store, err := overrides.NewStore(cfm, costmodel.CanonicalOverrideKey)
	if err != nil {
		// a corrupt document is reported but does not stop the API; it can be replaced over HTTP
		log.Errorf("Loading persisted overrides: %s", err)
	}

	mc, err := metrics.GetMetricsConfig(cfm.ConfigFileAt(metrics.MetricsConfigFileName))
	if err != nil {
		log.Warnf("Reading metrics config: %s", err)
	}
	metrics.InitTelemetry(mc)

	activityLogger, err := newActivityLogger()
	if err != nil {
		return fmt.Errorf("opening activity store: %w", err)
	}

	activityClient := newActivityClient(activityLogger)

	a := costmodel.Initialize(costmodel.AccessesOpts{
		Catalogs:            catalogs,
		Overrides:           store,
		Activity:            activityClient,
		ActivityLogger:      activityLogger,
		ActivityToken:       env.GetActivityToken(),
		AdminToken:          env.GetAdminToken(),
		ResultCacheDuration: env.GetResultCacheDuration(),
	})

	rootMux := http.NewServeMux()
	rootMux.Handle("/", a.Router)
	rootMux.Handle("/metrics", promhttp.Handler())
	telemetryHandler := metrics.ResponseMetricMiddleware(rootMux)

	var handler http.Handler = telemetryHandler
	if env.IsCORSAllowAll() {
		handler = cors.AllowAll().Handler(telemetryHandler)
	}

	port := opts.Port
	if port == 0 {
		port = env.GetAPIPort()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           gputcoerrors.PanicHandlerMiddleware(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer gputcoerrors.HandlePanic()
		cfm.WatchAll(ctx, configWatchInterval)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		log.Infof("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var ec gputcoerrors.ErrorCollector
	ec.Report(srv.Shutdown(shutdownCtx))
	if err := activityClient.Close(shutdownCtx); err != nil {
		ec.Report(fmt.Errorf("closing activity client with %d events dropped: %w", activityClient.Dropped(), err))
	}
	ec.Report(activityLogger.Close())
	if ec.IsError() {
		log.Warnf("Shutdown: %s", ec.Error())
	}

	return serveErr
}

// newActivityLogger selects the event store: postgres when a DSN is set, a local bolt database
// when activity is enabled, and an in-memory store otherwise.
func newActivityLogger() (*activity.Logger, error) {
	if dsn := env.GetActivitySQLDSN(); dsn != "" {
		es, err := activity.OpenSQLEventStorage(dsn, activityTable)
		if err != nil {
			return nil, err
		}
		log.Infof("Recording activity to postgres table %s", activityTable)
		return activity.NewLogger(es), nil
	}

	if !env.IsActivityEnabled() {
		log.Infof("Activity persistence disabled; events are kept in memory")
		return activity.NewLogger(activity.NewMapDBEventStorage()), nil
	}

	path := env.GetActivityDBPath()
	if err := fileutil.EnsureDir(path); err != nil {
		return nil, err
	}
	es, err := activity.OpenBoltDBEventStorage(path, activityBucket)
	if err != nil {
		return nil, err
	}
	log.Infof("Recording activity to %s", path)
	return activity.NewLogger(es), nil
}

// newActivityClient forwards events to a remote activity endpoint when one is configured, and to
// the local logger otherwise.
func newActivityClient(logger *activity.Logger) *activity.Client {
	var recorder activity.Recorder = logger
	if url := env.GetActivityURL(); url != "" {
		log.Infof("Forwarding activity to %s", url)
		recorder = activity.NewHTTPRecorder(url, env.GetActivityToken())
	}

	opts := activity.DefaultClientOpts()
	opts.OnDropped = func() {
		metrics.DispatchActivity(metrics.ActivityDropped)
	}
	opts.OnDelivered = func(success bool) {
		if success {
			metrics.DispatchActivity(metrics.ActivityDelivered)
		} else {
			metrics.DispatchActivity(metrics.ActivityFailed)
		}
	}

	return activity.NewClient(recorder, opts)
}
