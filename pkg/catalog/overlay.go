package catalog

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ApplyOverlay merges a YAML or JSON document shaped like Catalogs into c. Entries replace the
// built-in entry with the same key as a whole; default keys are replaced when non-empty.
func (c *Catalogs) ApplyOverlay(data []byte) error {
	var overlay Catalogs
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing catalog overlay: %w", err)
	}

	for k, v := range overlay.GPUs {
		v.Key = NormalizeKey(k)
		c.GPUs[v.Key] = v
	}
	for k, v := range overlay.Regions {
		v.Key = NormalizeKey(k)
		c.Regions[v.Key] = v
	}
	for k, v := range overlay.Fabrics {
		v.Key = NormalizeKey(k)
		c.Fabrics[v.Key] = v
	}
	for k, v := range overlay.StorageVendors {
		v.Key = NormalizeKey(k)
		c.StorageVendors[v.Key] = v
	}
	for k, v := range overlay.StorageArchitectures {
		v.Key = NormalizeKey(k)
		c.StorageArchitectures[v.Key] = v
	}
	for k, v := range overlay.SoftwareComponents {
		v.Key = NormalizeKey(k)
		if v.PricingUnit == "" {
			v.PricingUnit = PricingPerGPU
		}
		c.SoftwareComponents[v.Key] = v
	}
	for k, v := range overlay.SoftwareStacks {
		v.Key = NormalizeKey(k)
		c.SoftwareStacks[v.Key] = v
	}

	setIfNotEmpty(&c.DefaultGPU, overlay.DefaultGPU)
	setIfNotEmpty(&c.DefaultRegion, overlay.DefaultRegion)
	setIfNotEmpty(&c.DefaultFabric, overlay.DefaultFabric)
	setIfNotEmpty(&c.DefaultStorageTier, overlay.DefaultStorageTier)
	setIfNotEmpty(&c.DefaultStack, overlay.DefaultStack)
	if overlay.DefaultStorageTotal > 0 {
		c.DefaultStorageTotal = overlay.DefaultStorageTotal
	}

	return nil
}

// ApplyOverlayFile reads an overlay document from disk and merges it into c.
func (c *Catalogs) ApplyOverlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading catalog overlay %s: %w", path, err)
	}
	return c.ApplyOverlay(data)
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = NormalizeKey(value)
	}
}
