package compute

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/costmodel"
	"github.com/opencost/gputco/pkg/env"
	"github.com/opencost/gputco/pkg/util/json"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func noCatalogSources(t *testing.T) {
	t.Setenv(env.CatalogFileEnvVar, "")
	t.Setenv(env.CatalogPriceSheetEnvVar, "")
}

func TestParseConfiguration(t *testing.T) {
	c := catalog.Default()

	cfg, err := ParseConfiguration([]byte(`
gpuModel: gb200
gpuCount: 10000
region: eu-north
storage:
  totalPB: 50
serviceTiers:
  distribution:
    bare-metal: 60
    inference-api: 40
  modifiers:
    compliance: [soc2, hipaa]
`), c)
	require.NoError(t, err)

	assert.Equal(t, "gb200", cfg.GPUModel)
	assert.Equal(t, 10_000, cfg.GPUCount)
	assert.Equal(t, "eu-north", cfg.Region)
	assert.Equal(t, 50.0, cfg.Storage.TotalPB)
	require.NotNil(t, cfg.ServiceTiers)
	assert.Equal(t, map[string]float64{"bare-metal": 60, "inference-api": 40}, cfg.ServiceTiers.Distribution)
	assert.Equal(t, []string{"soc2", "hipaa"}, cfg.ServiceTiers.Modifiers.Compliance)

	// mistyped values keep their defaults
	cfg, err = ParseConfiguration([]byte(`gpuCount: plenty`), c)
	require.NoError(t, err)
	assert.Equal(t, costmodel.DefaultGPUCount, cfg.GPUCount)

	_, err = ParseConfiguration([]byte("gpuModel: [unterminated"), c)
	assert.ErrorContains(t, err, "parsing configuration")
}

func TestParseOverrides(t *testing.T) {
	o, err := ParseOverrides([]byte("pue: 1.2\ngpuUnitPrice: 20000\n"))
	require.NoError(t, err)
	assert.Equal(t, costmodel.Overrides{"pue": 1.2, "gpuUnitPrice": 20_000}, o)

	o, err = ParseOverrides([]byte(`{"energyRate": 0.05}`))
	require.NoError(t, err)
	assert.Equal(t, costmodel.Overrides{"energyRate": 0.05}, o)

	_, err = ParseOverrides([]byte("pue: lots"))
	assert.ErrorContains(t, err, "parsing overrides")
}

func TestExecute_JSON(t *testing.T) {
	noCatalogSources(t)

	cfgFile := writeFile(t, "config.yaml", "gpuModel: gb200\ngpuCount: 10000\n")
	overridesFile := writeFile(t, "overrides.yaml", "pue: 1.2\n")

	var out bytes.Buffer
	err := Execute(&ComputeOpts{
		ConfigFile:    cfgFile,
		OverridesFile: overridesFile,
		Output:        OutputJSON,
		Out:           &out,
	})
	require.NoError(t, err)

	var r costmodel.Results
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, 10_008, r.Sizing.ActualGPUs)
	assert.Equal(t, 650_520_000.0, r.Capex.GPU)
	assert.Equal(t, []string{"pue"}, r.AppliedOverrides)
}

func TestExecute_Table(t *testing.T) {
	noCatalogSources(t)

	var out bytes.Buffer
	err := Execute(&ComputeOpts{Output: OutputTable, Out: &out})
	require.NoError(t, err)

	table := out.String()
	assert.Contains(t, table, "CATEGORY")
	assert.Contains(t, table, "Cost / GPU-hour")
	assert.Contains(t, table, "TCO (5 years)")
	assert.NotContains(t, table, "warning:")
}

func TestExecute_Errors(t *testing.T) {
	noCatalogSources(t)

	err := Execute(&ComputeOpts{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml"), Out: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "reading configuration")

	err = Execute(&ComputeOpts{Output: "xml", Out: &bytes.Buffer{}})
	assert.ErrorContains(t, err, `unsupported output format "xml"`)
}

func TestExecuteCatalog(t *testing.T) {
	noCatalogSources(t)

	var out bytes.Buffer
	require.NoError(t, ExecuteCatalog(&CatalogOpts{Kind: "fabrics", Output: OutputJSON, Out: &out}))

	var fabrics []catalog.FabricSpec
	require.NoError(t, json.Unmarshal(out.Bytes(), &fabrics))
	assert.Len(t, fabrics, len(catalog.Default().Fabrics))

	out.Reset()
	require.NoError(t, ExecuteCatalog(&CatalogOpts{Output: OutputYAML, Out: &out}))
	assert.Contains(t, out.String(), "defaultGPU: h100")

	err := ExecuteCatalog(&CatalogOpts{Kind: "toasters", Out: &out})
	assert.ErrorContains(t, err, `unknown catalog "toasters"`)
}
