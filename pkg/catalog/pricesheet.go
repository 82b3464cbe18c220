package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/opencost/gputco/pkg/log"
)

// priceRow is one line of a price sheet:
//
//	# kind,key,field,value
//	gpu,h100,unitPrice,27500
//	storage-vendor,vast,pricePerGB,0.028
type priceRow struct {
	Kind  string `csv:"kind"`
	Key   string `csv:"key"`
	Field string `csv:"field"`
	Value string `csv:"value"`
}

// ApplyPriceSheet applies negotiated prices from a CSV price sheet. Lines starting with '#' are
// comments and an optional "kind,key,field,value" header row is skipped. Rows that cannot be
// applied are skipped and reported in the returned warnings; only read failures are errors.
func (c *Catalogs) ApplyPriceSheet(r io.Reader) ([]string, error) {
	header, err := csvutil.Header(priceRow{}, "csv")
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(r)
	csvReader.Comment = '#'
	csvReader.FieldsPerRecord = len(header)
	csvReader.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(csvReader, header...)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading price sheet: %w", err)
	}

	var warnings []string
	for {
		var row priceRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
			warnings = append(warnings, fmt.Sprintf("price sheet line %d: expected %d fields", parseErr.StartLine, len(header)))
			continue
		}
		if err != nil && !errors.Is(err, csvutil.ErrFieldCount) {
			return warnings, fmt.Errorf("reading price sheet: %w", err)
		}

		// FieldPos reports the file line, which counts comments and the header
		line, _ := csvReader.FieldPos(0)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("price sheet line %d: expected %d fields", line, len(header)))
			continue
		}

		if strings.EqualFold(strings.TrimSpace(row.Kind), "kind") {
			continue
		}

		if err := c.applyPrice(row); err != nil {
			warnings = append(warnings, fmt.Sprintf("price sheet line %d: %s", line, err))
			continue
		}
		log.Debugf("Applied price sheet entry %s/%s %s=%s", row.Kind, row.Key, row.Field, row.Value)
	}

	return warnings, nil
}

// ApplyPriceSheetFile opens a CSV price sheet and applies it to c.
func (c *Catalogs) ApplyPriceSheetFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price sheet %s: %w", path, err)
	}
	defer f.Close()

	return c.ApplyPriceSheet(f)
}

func (c *Catalogs) applyPrice(row priceRow) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
	if err != nil || !validNonNegative(value) {
		return fmt.Errorf("invalid value %q", row.Value)
	}

	key := NormalizeKey(row.Key)
	field := strings.TrimSpace(row.Field)

	switch NormalizeKey(row.Kind) {
	case "gpu":
		g, ok := c.GPUs[key]
		if !ok {
			return fmt.Errorf("unknown gpu %q", row.Key)
		}
		switch field {
		case "unitPrice":
			g.UnitPrice = value
		case "powerW":
			g.PowerW = value
		case "rackPowerW":
			g.RackPowerW = value
		case "memoryGB":
			g.MemoryGB = value
		default:
			return fmt.Errorf("unknown gpu field %q", field)
		}
		c.GPUs[key] = g

	case "region":
		r, ok := c.Regions[key]
		if !ok {
			return fmt.Errorf("unknown region %q", row.Key)
		}
		switch field {
		case "energyRate":
			r.EnergyRate = value
		case "defaultPUE":
			r.DefaultPUE = value
		default:
			return fmt.Errorf("unknown region field %q", field)
		}
		c.Regions[key] = r

	case "fabric":
		f, ok := c.Fabrics[key]
		if !ok {
			return fmt.Errorf("unknown fabric %q", row.Key)
		}
		switch field {
		case "switchPrice":
			f.SwitchPrice = value
		case "cablePrice":
			f.CablePrice = value
		case "transceiverPrice":
			f.TransceiverPrice = value
		case "switchPowerW":
			f.SwitchPowerW = value
		default:
			return fmt.Errorf("unknown fabric field %q", field)
		}
		c.Fabrics[key] = f

	case "storage-vendor":
		v, ok := c.StorageVendors[key]
		if !ok {
			return fmt.Errorf("unknown storage vendor %q", row.Key)
		}
		switch field {
		case "pricePerGB":
			v.PricePerGB = value
		case "powerPerTBW":
			v.PowerPerTBW = value
		default:
			return fmt.Errorf("unknown storage vendor field %q", field)
		}
		c.StorageVendors[key] = v

	case "software-component":
		sc, ok := c.SoftwareComponents[key]
		if !ok {
			return fmt.Errorf("unknown software component %q", row.Key)
		}
		switch field {
		case "costPerGPUYear":
			sc.CostPerGPUYear = value
		case "setupCost":
			sc.SetupCost = value
		default:
			return fmt.Errorf("unknown software component field %q", field)
		}
		c.SoftwareComponents[key] = sc

	default:
		return fmt.Errorf("unknown kind %q", row.Kind)
	}

	return nil
}
