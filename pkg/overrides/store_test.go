package overrides

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/config"
	"github.com/opencost/gputco/pkg/storage"
)

var testKeys = map[string]string{
	"pue":          "pue",
	"energyrate":   "energyRate",
	"gpuunitprice": "gpuUnitPrice",
}

func testKeyFunc(key string) (string, bool) {
	k, ok := testKeys[strings.ToLower(key)]
	return k, ok
}

func newTestStore(t *testing.T) (*Store, storage.Storage) {
	t.Helper()

	store := storage.NewMemoryStorage()
	s, err := NewStore(config.NewConfigFileManagerWith(store), testKeyFunc)
	require.NoError(t, err)
	return s, store
}

func TestNewStore_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Empty(t, s.Overrides())
	assert.Empty(t, s.Distribution())
	assert.True(t, s.Modifiers().IsEmpty())
}

func TestNewStore_LoadsExistingDocuments(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Write(OverridesFileName, []byte(`{"pue":1.2}`)))
	require.NoError(t, store.Write(DistributionFileName, []byte(`{"bare-metal":100}`)))
	require.NoError(t, store.Write(ModifiersFileName, []byte(`{"compliance":["soc2"]}`)))

	s, err := NewStore(config.NewConfigFileManagerWith(store), testKeyFunc)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"pue": 1.2}, s.Overrides())
	assert.Equal(t, map[string]float64{"bare-metal": 100}, s.Distribution())
	assert.Equal(t, Modifiers{Compliance: []string{"soc2"}}, s.Modifiers())
}

func TestNewStore_MalformedDocument(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Write(OverridesFileName, []byte(`{"pue":`)))

	s, err := NewStore(config.NewConfigFileManagerWith(store), testKeyFunc)
	require.Error(t, err)
	require.NotNil(t, s)
	assert.Empty(t, s.Overrides())
}

func TestStore_SetOverrides(t *testing.T) {
	s, store := newTestStore(t)

	require.NoError(t, s.SetOverrides(map[string]float64{"PUE": 1.3, "EnergyRate": 0.07}))
	assert.Equal(t, map[string]float64{"pue": 1.3, "energyRate": 0.07}, s.Overrides())

	data, err := store.Read(OverridesFileName)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pue":1.3,"energyRate":0.07}`, string(data))

	require.NoError(t, s.SetOverride("gpuUnitPrice", 21000))
	assert.Equal(t, map[string]float64{"pue": 1.3, "energyRate": 0.07, "gpuUnitPrice": 21000}, s.Overrides())
}

func TestStore_SetOverridesRejectsInvalid(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetOverrides(map[string]float64{"pue": 1.3}))

	cases := map[string]map[string]float64{
		"unknown key": {"pue": 1.2, "coffeeBudget": 10},
		"nan":         {"pue": math.NaN()},
		"inf":         {"energyRate": math.Inf(1)},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.SetOverrides(values))
			assert.Equal(t, map[string]float64{"pue": 1.3}, s.Overrides())
		})
	}

	assert.Error(t, s.SetOverride("coffeeBudget", 1))
	assert.Error(t, s.SetOverride("pue", math.Inf(-1)))
}

func TestStore_DeleteOverrides(t *testing.T) {
	s, store := newTestStore(t)

	require.NoError(t, s.DeleteOverrides())

	require.NoError(t, s.SetOverride("pue", 1.4))
	require.NoError(t, s.DeleteOverrides())
	assert.Empty(t, s.Overrides())

	exists, err := store.Exists(OverridesFileName)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Distribution(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.SetDistribution(map[string]float64{" Bare-Metal ": 60, "inference-api": 40}))
	assert.Equal(t, map[string]float64{"bare-metal": 60, "inference-api": 40}, s.Distribution())

	assert.Error(t, s.SetDistribution(map[string]float64{"bare-metal": -1}))
	assert.Error(t, s.SetDistribution(map[string]float64{"bare-metal": math.NaN()}))
	assert.Equal(t, map[string]float64{"bare-metal": 60, "inference-api": 40}, s.Distribution())
}

func TestStore_ModifiersAreSanitized(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.SetModifiers(Modifiers{
		StoragePerformance: "<b>Extreme</b>",
		Compliance:         []string{"HIPAA", "<i></i>", " fedramp "},
		Sustainability:     "renewable",
	})
	require.NoError(t, err)

	assert.Equal(t, Modifiers{
		StoragePerformance: "extreme",
		Compliance:         []string{"hipaa", "fedramp"},
		Sustainability:     "renewable",
	}, s.Modifiers())
}

func TestStore_ReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetOverride("pue", 1.2))
	require.NoError(t, s.SetModifiers(Modifiers{Compliance: []string{"soc2"}}))

	s.Overrides()["pue"] = 9
	s.Modifiers().Compliance[0] = "mutated"

	assert.Equal(t, 1.2, s.Overrides()["pue"])
	assert.Equal(t, []string{"soc2"}, s.Modifiers().Compliance)
}

func TestStore_OnChange(t *testing.T) {
	s, _ := newTestStore(t)

	calls := 0
	s.OnChange(func() { calls++ })

	require.NoError(t, s.SetOverride("pue", 1.2))
	require.NoError(t, s.SetDistribution(map[string]float64{"bare-metal": 100}))
	require.NoError(t, s.SetModifiers(Modifiers{Sustainability: "renewable"}))
	require.NoError(t, s.DeleteOverrides())

	assert.Equal(t, 4, calls)

	// rejected updates do not notify
	assert.Error(t, s.SetOverride("nope", 1))
	assert.Equal(t, 4, calls)
}
