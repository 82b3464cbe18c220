package compute

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	yamlv2 "gopkg.in/yaml.v2"
	"sigs.k8s.io/yaml"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/config"
	"github.com/opencost/gputco/pkg/costmodel"
	"github.com/opencost/gputco/pkg/env"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/storage"
	"github.com/opencost/gputco/pkg/util/formatutil"
	"github.com/opencost/gputco/pkg/util/json"
	"github.com/opencost/gputco/pkg/util/mapper"
)

// Output formats
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputCSV   = "csv"
)

// ComputeOpts contain configuration options that can be passed to the Execute() method
type ComputeOpts struct {
	ConfigFile    string
	OverridesFile string
	Output        string
	Out           io.Writer

	// ExportPath, when set, also stores a CSV export in the configuration storage
	// ($OVERRIDE_STORAGE_CONFIG bucket or $CONFIG_PATH).
	ExportPath string
}

// CatalogOpts contain configuration options that can be passed to the ExecuteCatalog() method
type CatalogOpts struct {
	Kind   string
	Output string
	Out    io.Writer
}

// Execute runs one calculation offline, using the same catalogs the server would load.
func Execute(opts *ComputeOpts) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	// stage timings are only collected at debug level
	var profiler *log.Profiler
	if log.GetLogger().Debug().Enabled() {
		profiler = log.NewProfiler()
		defer profiler.LogAll()
	}

	profiler.Start("load catalogs")
	catalogs, err := loadCatalogs()
	profiler.Stop("load catalogs")
	if err != nil {
		return err
	}

	cfg := costmodel.DefaultConfiguration(catalogs)
	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		cfg, err = ParseConfiguration(data, catalogs)
		if err != nil {
			return err
		}
	}

	o := costmodel.Overrides{}
	if opts.OverridesFile != "" {
		data, err := os.ReadFile(opts.OverridesFile)
		if err != nil {
			return fmt.Errorf("reading overrides: %w", err)
		}
		o, err = ParseOverrides(data)
		if err != nil {
			return err
		}
	}

	profiler.Start("compute")
	results := costmodel.ComputeTCO(cfg, catalogs, o)
	profiler.Stop("compute")

	if e := log.GetLogger().Debug(); e.Enabled() {
		e.Msgf("Results:\n%s", spew.Sdump(results))
	}
	for _, w := range results.Warnings {
		log.Warnf("%s", w)
	}

	if opts.ExportPath != "" {
		profiler.Start("export")
		err := costmodel.ExportCSV(exportStorage(), opts.ExportPath, results)
		profiler.Stop("export")
		if err != nil {
			return err
		}
		log.Infof("Exported line items to %s", opts.ExportPath)
	}

	profiler.Start("render")
	defer profiler.Stop("render")
	return writeResults(out, opts.Output, results)
}

// exportStorage is the storage the server persists its documents to.
func exportStorage() storage.Storage {
	return config.NewConfigFileManager(&config.ConfigFileManagerOpts{
		BucketStoreConfig: env.GetOverrideStorageConfig(),
		LocalConfigPath:   env.GetConfigPath(),
	}).Storage()
}

// ExecuteCatalog prints the catalogs, or the entries of a single kind.
func ExecuteCatalog(opts *CatalogOpts) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	catalogs, err := loadCatalogs()
	if err != nil {
		return err
	}

	var v interface{} = catalogs
	if opts.Kind != "" {
		entries, ok := catalogs.List(opts.Kind)
		if !ok {
			return fmt.Errorf("unknown catalog %q, expected one of: %s", opts.Kind, strings.Join(catalog.Kinds, ", "))
		}
		v = entries
	}

	return writeDocument(out, opts.Output, v)
}

func loadCatalogs() (*catalog.Catalogs, error) {
	return catalog.Load(catalog.LoadOpts{
		OverlayFile:    env.GetCatalogFile(),
		PriceSheetFile: env.GetCatalogPriceSheet(),
	})
}

// ParseConfiguration reads a YAML (or JSON) configuration document with the same lenient rules as
// the HTTP API: missing or mistyped fields keep their defaults.
func ParseConfiguration(data []byte, c *catalog.Catalogs) (costmodel.Configuration, error) {
	var doc interface{}
	if err := yamlv2.Unmarshal(data, &doc); err != nil {
		return costmodel.Configuration{}, fmt.Errorf("parsing configuration: %w", err)
	}

	flat := costmodel.FlattenDocument(doc)
	return costmodel.ConfigurationFromMap(mapper.NewMapper(mapper.NewGoMap(flat)), c), nil
}

// ParseOverrides reads a YAML (or JSON) map of override keys to numbers.
func ParseOverrides(data []byte) (costmodel.Overrides, error) {
	o := costmodel.Overrides{}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}
	return o, nil
}

func writeResults(out io.Writer, format string, results *costmodel.Results) error {
	if format == "" || strings.EqualFold(format, OutputTable) {
		return writeTable(out, results)
	}
	if strings.EqualFold(format, OutputCSV) {
		return costmodel.WriteCSV(out, results)
	}
	return writeDocument(out, format, results)
}

func writeDocument(out io.Writer, format string, v interface{}) error {
	var data []byte
	var err error

	switch strings.ToLower(format) {
	case OutputJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case OutputYAML, "":
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}

	_, err = out.Write(data)
	return err
}

func writeTable(out io.Writer, r *costmodel.Results) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "CATEGORY\tITEM\tQUANTITY\tUNIT COST\tTOTAL\tKIND\t\n")
	for _, li := range r.LineItems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			li.Category, li.Item, formatQuantity(li.Quantity, li.Unit),
			formatutil.Dollars(li.UnitCost), formatutil.Dollars(li.Total), li.Kind)
	}
	fmt.Fprintf(tw, "\t\t\t\t\t\t\n")

	type row struct{ label, value string }
	summary := []row{
		{"GPUs", fmt.Sprintf("%d", r.Sizing.ActualGPUs)},
		{"Capex", formatutil.Dollars(r.Capex.Total)},
		{"Opex / year", formatutil.Dollars(r.Opex.Total)},
		{fmt.Sprintf("TCO (%d years)", r.TCOYears), formatutil.Dollars(r.TCO)},
		{"Cost / GPU-hour", fmt.Sprintf("$%.4f", r.CostPerGPUHour)},
	}
	if r.Revenue != nil {
		summary = append(summary,
			row{"Blended price / GPU-hour", fmt.Sprintf("$%.4f", r.Revenue.BlendedPricePerGPUHour)},
			row{"Annual margin", formatutil.Dollars(r.Revenue.Margin)},
		)
	}
	for _, s := range summary {
		fmt.Fprintf(tw, "\t%s\t\t\t%s\t\t\n", s.label, s.value)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

func formatQuantity(q float64, unit string) string {
	s := fmt.Sprintf("%g", q)
	if q == float64(int64(q)) {
		s = fmt.Sprintf("%d", int64(q))
	}
	if unit != "" {
		s += " " + unit
	}
	return s
}
