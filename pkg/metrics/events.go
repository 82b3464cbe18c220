package metrics

import "time"

// HttpHandlerMetricEvent contains http handler response metrics.
type HttpHandlerMetricEvent struct {
	Handler      string
	Method       string
	Code         int
	ResponseTime time.Duration
	ResponseSize uint64
}

// CalculationMetricEvent is dispatched for every TCO request served.
type CalculationMetricEvent struct {
	GPUModel string
	Cached   bool
	Warnings int
	Duration time.Duration
}

// ActivityResult is the outcome of an activity event hand-off.
type ActivityResult string

const (
	ActivityDelivered ActivityResult = "delivered"
	ActivityFailed    ActivityResult = "failed"
	ActivityDropped   ActivityResult = "dropped"
)

// ActivityMetricEvent is dispatched by the activity client.
type ActivityMetricEvent struct {
	Result ActivityResult
}
