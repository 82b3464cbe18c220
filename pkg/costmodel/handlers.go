package costmodel

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/opencost/gputco/pkg/activity"
	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/metrics"
	"github.com/opencost/gputco/pkg/util/httputil"
	"github.com/opencost/gputco/pkg/util/json"
	"github.com/opencost/gputco/pkg/version"
)

func (a *Accesses) Healthz(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":  "ok",
		"version": version.FriendlyVersion(),
	}
	if a.Overrides != nil {
		health["overridesStorage"] = a.Overrides.StorageType()
	}

	w.Write(WrapData(health, nil))
}

// ComputeTCOHandler computes the TCO for a configuration given as query parameters (GET) or as a
// JSON body (POST). Persisted overrides and service tier settings apply unless the request sets
// overrides=false. format=csv returns the line items as CSV instead of the JSON envelope.
func (a *Accesses) ComputeTCOHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	ctx, span := a.tracer.Start(r.Context(), "ComputeTCO")
	defer span.End()
	r = r.WithContext(ctx)

	cfg, err := a.configurationFromRequest(r)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		a.logActivity(r, activity.EventCalculation, false, map[string]string{"error": err.Error()})
		writeError(w, http.StatusBadRequest, err)
		return
	}

	qp := httputil.NewQueryParams(r.URL.Query())

	o := Overrides{}
	if qp.GetBool("overrides", true) && a.Overrides != nil {
		o = Overrides(a.Overrides.Overrides())
		cfg = a.withPersistedServiceTiers(cfg)
	}

	start := time.Now()
	results, cached := a.computeTCO(cfg, o)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("gputco.gpu_model", results.Configuration.GPUModel),
		attribute.Int("gputco.gpu_count", results.Sizing.ActualGPUs),
		attribute.Int("gputco.warnings", len(results.Warnings)),
		attribute.Bool("gputco.cached", cached),
	)

	metrics.DispatchCalculation(metrics.CalculationMetricEvent{
		GPUModel: results.Configuration.GPUModel,
		Cached:   cached,
		Warnings: len(results.Warnings),
		Duration: elapsed,
	})

	a.logActivity(r, activity.EventCalculation, true, map[string]string{
		"gpuModel": results.Configuration.GPUModel,
		"gpuCount": strconv.Itoa(results.Sizing.ActualGPUs),
		"region":   results.Configuration.Region,
	})

	if strings.EqualFold(qp.Get("format", ""), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="tco.csv"`)
		if err := WriteCSV(w, results); err != nil {
			log.Errorf("Writing CSV response: %s", err)
		}
		return
	}

	w.Write(WrapDataWithWarning(results, nil, strings.Join(results.Warnings, "; ")))
}

func (a *Accesses) configurationFromRequest(r *http.Request) (Configuration, error) {
	if r.Method != http.MethodPost {
		return ConfigurationFromMap(httputil.NewQueryParams(r.URL.Query()), a.Catalogs), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return Configuration{}, fmt.Errorf("reading request body: %w", err)
	}
	return ConfigurationFromJSON(data, a.Catalogs)
}

// withPersistedServiceTiers fills the revenue settings the request left empty from the persisted
// distribution and modifiers. Revenue is enabled when anything has been persisted.
func (a *Accesses) withPersistedServiceTiers(cfg Configuration) Configuration {
	dist := a.Overrides.Distribution()
	mods := a.Overrides.Modifiers()
	if len(dist) == 0 && mods.IsEmpty() && cfg.ServiceTiers == nil {
		return cfg
	}

	st := ServiceTierConfig{}
	if cfg.ServiceTiers != nil {
		st = cfg.ServiceTiers.clone()
	}
	if len(st.Distribution) == 0 && len(dist) > 0 {
		st.Distribution = dist
	}
	if st.Modifiers.StoragePerformance == "" {
		st.Modifiers.StoragePerformance = mods.StoragePerformance
	}
	if len(st.Modifiers.Compliance) == 0 {
		st.Modifiers.Compliance = mods.Compliance
	}
	if st.Modifiers.Sustainability == "" {
		st.Modifiers.Sustainability = mods.Sustainability
	}

	cfg.ServiceTiers = &st
	return cfg
}

// computeTCO returns cached results when an identical calculation was served recently, and
// collapses identical in-flight calculations into one.
func (a *Accesses) computeTCO(cfg Configuration, o Overrides) (*Results, bool) {
	if a.ResultCache == nil {
		return ComputeTCO(cfg, a.Catalogs, o), false
	}

	key, err := resultCacheKey(cfg, o)
	if err != nil {
		log.Debugf("Skipping result cache: %s", err)
		return ComputeTCO(cfg, a.Catalogs, o), false
	}

	if v, ok := a.ResultCache.Get(key); ok {
		log.Tracef("Result cache hit for %s", key)
		return v.(*Results), true
	}

	v, _, _ := a.calculations.Do(key, func() (interface{}, error) {
		results := ComputeTCO(cfg, a.Catalogs, o)
		a.ResultCache.SetDefault(key, results)
		return results, nil
	})
	return v.(*Results), false
}

// resultCacheKey hashes the JSON encoding of the inputs; map keys are encoded in sorted order.
func resultCacheKey(cfg Configuration, o Overrides) (string, error) {
	data, err := json.Marshal(struct {
		Configuration Configuration `json:"configuration"`
		Overrides     Overrides     `json:"overrides"`
	}{cfg, o})
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

func (a *Accesses) GetCatalog(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	w.Write(WrapData(a.Catalogs, nil))
}

func (a *Accesses) GetCatalogKind(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	kind := ps.ByName("kind")
	entries, ok := a.Catalogs.List(kind)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown catalog %q, expected one of: %s", kind, strings.Join(catalog.Kinds, ", ")))
		return
	}

	w.Write(WrapData(entries, nil))
}

// GetStackCost prices one software stack on its own, using the persisted overrides for the FTE
// rate and license price.
func (a *Accesses) GetStackCost(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")

	id := ps.ByName("id")
	if _, ok := a.Catalogs.Stack(id); !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown software stack %q", id))
		return
	}

	qp := httputil.NewQueryParams(r.URL.Query())
	gpuCount := qp.GetInt("gpuCount", DefaultGPUCount)
	years := qp.GetInt("years", DefaultDepreciationYears)
	if gpuCount <= 0 || years <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gpuCount and years must be positive"))
		return
	}

	tier, ok := ParseSupportTier(qp.Get("supportTier", ""))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown support tier %q, expected community, business or enterprise", tier))
		return
	}

	o := Overrides{}
	if qp.GetBool("overrides", true) && a.Overrides != nil {
		o = Overrides(a.Overrides.Overrides())
	}
	cfg, _ := DefaultConfiguration(a.Catalogs).Normalize(a.Catalogs)
	pricing := ResolvePricing(a.Catalogs, cfg, o)

	cost := CalculateStackCost(a.Catalogs, id, gpuCount, years, tier, pricing)
	w.Write(WrapDataWithWarning(cost, nil, strings.Join(cost.Warnings, "; ")))
}
