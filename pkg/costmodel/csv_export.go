package costmodel

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/pkg/errors"

	"github.com/opencost/gputco/pkg/storage"
)

// lineItemRow is the CSV shape of a LineItem. Totals are rounded to cents.
type lineItemRow struct {
	Category string  `csv:"category"`
	Item     string  `csv:"item"`
	Kind     string  `csv:"kind"`
	Quantity float64 `csv:"quantity"`
	Unit     string  `csv:"unit,omitempty"`
	UnitCost string  `csv:"unitCost"`
	Total    string  `csv:"total"`
}

func cents(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// WriteCSV writes the line items of r as CSV, followed by one summary row per capex and opex total
// and the TCO.
func WriteCSV(w io.Writer, r *Results) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	rows := make([]lineItemRow, 0, len(r.LineItems)+3)
	for _, li := range r.LineItems {
		rows = append(rows, lineItemRow{
			Category: li.Category,
			Item:     li.Item,
			Kind:     string(li.Kind),
			Quantity: li.Quantity,
			Unit:     li.Unit,
			UnitCost: cents(li.UnitCost),
			Total:    cents(li.Total),
		})
	}
	rows = append(rows,
		lineItemRow{Category: "Total", Item: "Capex", Kind: string(KindCapex), Quantity: 1, Total: cents(r.Capex.Total)},
		lineItemRow{Category: "Total", Item: "Opex (annual)", Kind: string(KindOpex), Quantity: 1, Total: cents(r.Opex.Total)},
		lineItemRow{Category: "Total", Item: "TCO (" + strconv.Itoa(r.TCOYears) + " years)", Quantity: 1, Total: cents(r.TCO)},
	)

	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return errors.Wrapf(err, "encoding line item %s", row.Item)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV stores the CSV rendering of r at path in store, replacing any previous export.
func ExportCSV(store storage.Storage, path string, r *Results) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		return err
	}

	if err := store.Write(path, buf.Bytes()); err != nil {
		return errors.Wrapf(err, "writing export to %s", path)
	}
	return nil
}
