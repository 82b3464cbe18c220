package metrics

import (
	"github.com/pkg/errors"

	"github.com/opencost/gputco/pkg/config"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/storage"
	"github.com/opencost/gputco/pkg/util/json"
)

// MetricsConfigFileName is the metrics configuration document in the configuration storage.
const MetricsConfigFileName = "metrics.json"

// MetricsConfig lists collectors that InitTelemetry must not register, by metric name.
type MetricsConfig struct {
	DisabledMetrics []string `json:"disabledMetrics"`
}

func (mc MetricsConfig) GetDisabledMetricsMap() map[string]struct{} {
	disabled := make(map[string]struct{}, len(mc.DisabledMetrics))
	for _, name := range mc.DisabledMetrics {
		log.Infof("Metric %s is disabled", name)
		disabled[name] = struct{}{}
	}
	return disabled
}

// GetMetricsConfig reads the metrics configuration. A missing file yields an empty config.
func GetMetricsConfig(cf *config.ConfigFile) (*MetricsConfig, error) {
	mc := new(MetricsConfig)

	body, err := cf.Read()
	switch {
	case storage.IsNotExist(err):
		return mc, nil
	case err != nil:
		return mc, errors.Wrapf(err, "reading %s", cf.Path())
	}

	if err := json.Unmarshal(body, mc); err != nil {
		return mc, errors.Wrapf(err, "parsing %s", cf.Path())
	}
	return mc, nil
}

// UpdateMetricsConfig persists mc, replacing the previous document.
func UpdateMetricsConfig(cf *config.ConfigFile, mc *MetricsConfig) (*MetricsConfig, error) {
	body, err := json.Marshal(mc)
	if err != nil {
		return nil, errors.Wrap(err, "encoding metrics config")
	}
	if err := cf.Write(body); err != nil {
		return nil, errors.Wrapf(err, "writing %s", cf.Path())
	}
	return mc, nil
}
