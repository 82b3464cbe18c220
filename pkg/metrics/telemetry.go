package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/kubecost/events"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names, usable in MetricsConfig.DisabledMetrics.
const (
	HTTPRequestsTotal        = "gputco_http_requests_total"
	HTTPResponseTimeSeconds  = "gputco_http_response_time_seconds"
	HTTPResponseSizeBytes    = "gputco_http_response_size_bytes"
	CalculationsTotal        = "gputco_calculations_total"
	CalculationSeconds       = "gputco_calculation_duration_seconds"
	CalculationWarningsTotal = "gputco_calculation_warnings_total"
	ActivityEventsTotal      = "gputco_activity_events_total"
)

var (
	once sync.Once

	// prometheus metrics; nil when disabled
	requestsCount       *prometheus.CounterVec
	responseTime        *prometheus.HistogramVec
	responseSize        *prometheus.SummaryVec
	calculationsCount   *prometheus.CounterVec
	calculationTime     prometheus.Histogram
	calculationWarnings prometheus.Counter
	activityCount       *prometheus.CounterVec
)

// InitTelemetry registers application telemetry on the default prometheus registry.
func InitTelemetry(config *MetricsConfig) {
	InitTelemetryWith(prometheus.DefaultRegisterer, config)
}

// InitTelemetryWith registers application telemetry on reg. Only the first call in a process
// has any effect.
func InitTelemetryWith(reg prometheus.Registerer, config *MetricsConfig) {
	if config == nil {
		config = &MetricsConfig{}
	}

	once.Do(func() {
		disabled := config.GetDisabledMetricsMap()
		enabled := func(name string) bool {
			_, ok := disabled[name]
			return !ok
		}

		var collectors []prometheus.Collector

		if enabled(HTTPRequestsTotal) {
			requestsCount = prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: HTTPRequestsTotal,
				Help: "gputco_http_requests_total Total number of HTTP requests",
			}, []string{"handler", "method", "code"})
			collectors = append(collectors, requestsCount)
		}

		if enabled(HTTPResponseTimeSeconds) {
			var buckets = []float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60}
			responseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    HTTPResponseTimeSeconds,
				Help:    "gputco_http_response_time_seconds Response time in seconds",
				Buckets: buckets,
			}, []string{"handler", "method", "code"})
			collectors = append(collectors, responseTime)
		}

		if enabled(HTTPResponseSizeBytes) {
			responseSize = prometheus.NewSummaryVec(prometheus.SummaryOpts{
				Name: HTTPResponseSizeBytes,
				Help: "gputco_http_response_size_bytes Response size in bytes",
			}, []string{"handler", "method", "code"})
			collectors = append(collectors, responseSize)
		}

		if enabled(CalculationsTotal) {
			calculationsCount = prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: CalculationsTotal,
				Help: "gputco_calculations_total Total number of TCO calculations served",
			}, []string{"gpu_model", "cached"})
			collectors = append(collectors, calculationsCount)
		}

		if enabled(CalculationSeconds) {
			calculationTime = prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    CalculationSeconds,
				Help:    "gputco_calculation_duration_seconds Time spent producing TCO results",
				Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
			})
			collectors = append(collectors, calculationTime)
		}

		if enabled(CalculationWarningsTotal) {
			calculationWarnings = prometheus.NewCounter(prometheus.CounterOpts{
				Name: CalculationWarningsTotal,
				Help: "gputco_calculation_warnings_total Total number of warnings returned with TCO results",
			})
			collectors = append(collectors, calculationWarnings)
		}

		if enabled(ActivityEventsTotal) {
			activityCount = prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: ActivityEventsTotal,
				Help: "gputco_activity_events_total Activity events by delivery result",
			}, []string{"result"})
			collectors = append(collectors, activityCount)
		}

		reg.MustRegister(collectors...)

		// register event listeners
		events.GlobalDispatcherFor[HttpHandlerMetricEvent]().AddEventHandler(onHttpHandlerMetricEvent)
		events.GlobalDispatcherFor[CalculationMetricEvent]().AddEventHandler(onCalculationMetricEvent)
		events.GlobalDispatcherFor[ActivityMetricEvent]().AddEventHandler(onActivityMetricEvent)
	})
}

// DispatchCalculation reports a served calculation.
func DispatchCalculation(event CalculationMetricEvent) {
	events.GlobalDispatcherFor[CalculationMetricEvent]().Dispatch(event)
}

// DispatchActivity reports the outcome of an activity event.
func DispatchActivity(result ActivityResult) {
	events.GlobalDispatcherFor[ActivityMetricEvent]().Dispatch(ActivityMetricEvent{Result: result})
}

// onHttpHandlerMetricEvent handles all incoming HttpHandlerMetricEvents
func onHttpHandlerMetricEvent(event HttpHandlerMetricEvent) {
	code := fmt.Sprintf("%d", event.Code)

	if requestsCount != nil {
		requestsCount.WithLabelValues(event.Handler, event.Method, code).Inc()
	}
	if responseSize != nil {
		responseSize.WithLabelValues(event.Handler, event.Method, code).Observe(float64(event.ResponseSize))
	}
	if responseTime != nil {
		responseTime.WithLabelValues(event.Handler, event.Method, code).Observe(event.ResponseTime.Seconds())
	}
}

func onCalculationMetricEvent(event CalculationMetricEvent) {
	if calculationsCount != nil {
		calculationsCount.WithLabelValues(event.GPUModel, strconv.FormatBool(event.Cached)).Inc()
	}
	if calculationTime != nil && !event.Cached {
		calculationTime.Observe(event.Duration.Seconds())
	}
	if calculationWarnings != nil {
		calculationWarnings.Add(float64(event.Warnings))
	}
}

func onActivityMetricEvent(event ActivityMetricEvent) {
	if activityCount != nil {
		activityCount.WithLabelValues(string(event.Result)).Inc()
	}
}
