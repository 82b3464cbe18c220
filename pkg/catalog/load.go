package catalog

import (
	"fmt"

	"github.com/opencost/gputco/pkg/log"
)

// LoadOpts selects the optional sources layered over the built-in catalogs.
type LoadOpts struct {
	// OverlayFile is a YAML or JSON document merged over the built-in entries.
	OverlayFile string

	// PriceSheetFile is a CSV price sheet applied after the overlay.
	PriceSheetFile string
}

// Load builds the process-wide catalogs: built-in data, then the overlay, then the price sheet.
// The result is validated before it is returned.
func Load(opts LoadOpts) (*Catalogs, error) {
	c := Default()

	if opts.OverlayFile != "" {
		if err := c.ApplyOverlayFile(opts.OverlayFile); err != nil {
			return nil, err
		}
		log.Infof("Applied catalog overlay from %s", opts.OverlayFile)
	}

	if opts.PriceSheetFile != "" {
		warnings, err := c.ApplyPriceSheetFile(opts.PriceSheetFile)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			log.Warnf("%s", w)
		}
		log.Infof("Applied catalog price sheet from %s", opts.PriceSheetFile)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return c, nil
}
