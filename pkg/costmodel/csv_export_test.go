package costmodel

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/storage"
)

func TestWriteCSV(t *testing.T) {
	r := ComputeTCO(DefaultConfiguration(nil), nil, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// header, one row per line item, three totals
	require.Len(t, records, 1+len(r.LineItems)+3)
	assert.Equal(t, []string{"category", "item", "kind", "quantity", "unit", "unitCost", "total"}, records[0])

	first := records[1]
	assert.Equal(t, r.LineItems[0].Category, first[0])
	assert.Equal(t, r.LineItems[0].Item, first[1])
	assert.Equal(t, cents(r.LineItems[0].Total), first[6])

	last := records[len(records)-1]
	assert.Equal(t, "Total", last[0])
	assert.Equal(t, "TCO (5 years)", last[1])
	assert.Equal(t, cents(r.TCO), last[6])
}

func TestExportCSV(t *testing.T) {
	store := storage.NewMemoryStorage()
	r := ComputeTCO(DefaultConfiguration(nil), nil, nil)

	require.NoError(t, ExportCSV(store, "exports/tco.csv", r))

	data, err := store.Read("exports/tco.csv")
	require.NoError(t, err)

	var expected bytes.Buffer
	require.NoError(t, WriteCSV(&expected, r))
	assert.Equal(t, expected.Bytes(), data)
}

func TestComputeTCOHandler_CSV(t *testing.T) {
	a := Initialize(AccessesOpts{Catalogs: catalog.Default()})

	req := httptest.NewRequest(http.MethodGet, "/tco?gpuModel=gb200&gpuCount=10000&format=csv", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Greater(t, len(records), 4)
	assert.Equal(t, "category", records[0][0])
}
