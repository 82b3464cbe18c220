package catalog

// Default returns a fresh copy of the built-in catalogs. Callers may layer overlays onto the
// returned value before publishing it; nothing else holds a reference to it.
func Default() *Catalogs {
	return &Catalogs{
		GPUs:                 builtinGPUs(),
		Regions:              builtinRegions(),
		Fabrics:              builtinFabrics(),
		StorageVendors:       builtinStorageVendors(),
		StorageArchitectures: builtinStorageArchitectures(),
		SoftwareComponents:   builtinSoftwareComponents(),
		SoftwareStacks:       builtinSoftwareStacks(),

		DefaultGPU:          "h100",
		DefaultRegion:       "us-east",
		DefaultFabric:       "infiniband-ndr",
		DefaultStorageTier:  "warm",
		DefaultStack:        "open-source-hpc",
		DefaultStorageTotal: 10,
	}
}

func builtinGPUs() map[string]GPUSpec {
	liquidOnly := []CoolingType{CoolingLiquid}
	airOrLiquid := []CoolingType{CoolingAir, CoolingLiquid}

	gpus := []GPUSpec{
		{
			Key: "gb200", Name: "NVIDIA GB200 NVL72", Vendor: "nvidia", Family: FamilyRackScale,
			PowerW: 1200, MemoryGB: 192, UnitPrice: 65000,
			RackSize: 72, RackPowerW: 132000,
			CoolingOptions: liquidOnly,
			PUE:            map[CoolingType]float64{CoolingLiquid: 1.10},
		},
		{
			Key: "gb300", Name: "NVIDIA GB300 NVL72", Vendor: "nvidia", Family: FamilyRackScale,
			PowerW: 1400, MemoryGB: 288, UnitPrice: 85000,
			RackSize: 72, RackPowerW: 140000,
			CoolingOptions: liquidOnly,
			PUE:            map[CoolingType]float64{CoolingLiquid: 1.10},
		},
		{
			Key: "b200", Name: "NVIDIA HGX B200", Vendor: "nvidia", Family: FamilyNode,
			PowerW: 1000, MemoryGB: 180, UnitPrice: 40000,
			RackSize: 8, RackPowerW: 14300,
			CoolingOptions: airOrLiquid,
			PUE:            map[CoolingType]float64{CoolingAir: 1.35, CoolingLiquid: 1.12},
		},
		{
			Key: "h200", Name: "NVIDIA HGX H200", Vendor: "nvidia", Family: FamilyNode,
			PowerW: 700, MemoryGB: 141, UnitPrice: 32000,
			RackSize: 8, RackPowerW: 10200,
			CoolingOptions: airOrLiquid,
			PUE:            map[CoolingType]float64{CoolingAir: 1.40, CoolingLiquid: 1.15},
		},
		{
			Key: "h100", Name: "NVIDIA HGX H100", Vendor: "nvidia", Family: FamilyNode,
			PowerW: 700, MemoryGB: 80, UnitPrice: 25000,
			RackSize: 8, RackPowerW: 10200,
			CoolingOptions: airOrLiquid,
			PUE:            map[CoolingType]float64{CoolingAir: 1.40, CoolingLiquid: 1.15},
		},
		{
			Key: "mi300x", Name: "AMD Instinct MI300X", Vendor: "amd", Family: FamilyNode,
			PowerW: 750, MemoryGB: 192, UnitPrice: 15000,
			RackSize: 8, RackPowerW: 10000,
			CoolingOptions: airOrLiquid,
			PUE:            map[CoolingType]float64{CoolingAir: 1.40, CoolingLiquid: 1.15},
		},
	}

	m := make(map[string]GPUSpec, len(gpus))
	for _, g := range gpus {
		m[g.Key] = g
	}
	return m
}

func builtinRegions() map[string]Region {
	regions := []Region{
		{Key: "us-east", Name: "US East", EnergyRate: 0.085, DefaultPUE: 1.30},
		{Key: "us-west", Name: "US West", EnergyRate: 0.12, DefaultPUE: 1.30},
		{Key: "us-central", Name: "US Central", EnergyRate: 0.07, DefaultPUE: 1.25},
		{Key: "eu-west", Name: "EU West", EnergyRate: 0.18, DefaultPUE: 1.25},
		{Key: "eu-north", Name: "EU North (Nordics)", EnergyRate: 0.06, DefaultPUE: 1.15},
		{Key: "asia-pacific", Name: "Asia Pacific", EnergyRate: 0.14, DefaultPUE: 1.40},
		{Key: "middle-east", Name: "Middle East", EnergyRate: 0.05, DefaultPUE: 1.45},
	}

	m := make(map[string]Region, len(regions))
	for _, r := range regions {
		m[r.Key] = r
	}
	return m
}

func builtinFabrics() map[string]FabricSpec {
	fabrics := []FabricSpec{
		{
			Key: "infiniband-ndr", Name: "InfiniBand NDR 400G", Vendor: "nvidia",
			SwitchPrice: 35000, CablePrice: 800, TransceiverPrice: 1200,
			BandwidthPerGPUGbps: 400, PortsPerSwitch: 64, SwitchPowerW: 1700,
		},
		{
			Key: "infiniband-xdr", Name: "InfiniBand XDR 800G", Vendor: "nvidia",
			SwitchPrice: 55000, CablePrice: 1000, TransceiverPrice: 1800,
			BandwidthPerGPUGbps: 800, PortsPerSwitch: 144, SwitchPowerW: 2500,
		},
		{
			Key: "ethernet-spectrum-x", Name: "Spectrum-X Ethernet 400G", Vendor: "nvidia",
			SwitchPrice: 30000, CablePrice: 500, TransceiverPrice: 900,
			BandwidthPerGPUGbps: 400, PortsPerSwitch: 64, SwitchPowerW: 1500,
		},
		{
			Key: "ethernet-800g", Name: "Ethernet 800G", Vendor: "broadcom",
			SwitchPrice: 45000, CablePrice: 700, TransceiverPrice: 1400,
			BandwidthPerGPUGbps: 800, PortsPerSwitch: 64, SwitchPowerW: 2000,
		},
	}

	m := make(map[string]FabricSpec, len(fabrics))
	for _, f := range fabrics {
		m[f.Key] = f
	}
	return m
}

func builtinStorageVendors() map[string]StorageVendor {
	vendors := []StorageVendor{
		{Key: "vast", Name: "VAST Data", Tier: "hot", PricePerGB: 0.030, PowerPerTBW: 6},
		{Key: "weka", Name: "WEKA", Tier: "scratch", PricePerGB: 0.035, PowerPerTBW: 7},
		{Key: "ddn", Name: "DDN EXAScaler", Tier: "hot", PricePerGB: 0.028, PowerPerTBW: 6.5},
		{Key: "pure", Name: "Pure Storage FlashBlade", Tier: "warm", PricePerGB: 0.025, PowerPerTBW: 5},
		{Key: "netapp", Name: "NetApp AFF", Tier: "warm", PricePerGB: 0.020, PowerPerTBW: 5},
		{Key: "dell-powerscale", Name: "Dell PowerScale", Tier: "cold", PricePerGB: 0.015, PowerPerTBW: 4},
		{Key: "ceph", Name: "Ceph (self-managed)", Tier: "cold", PricePerGB: 0.010, PowerPerTBW: 4},
		{Key: "spectra-tape", Name: "Spectra Logic Tape", Tier: "archive", PricePerGB: 0.004, PowerPerTBW: 0.5},
	}

	m := make(map[string]StorageVendor, len(vendors))
	for _, v := range vendors {
		m[v.Key] = v
	}
	return m
}

func builtinStorageArchitectures() map[string]StorageArchitecture {
	tiers := []StorageArchitecture{
		{
			Key: "hot", Name: "Hot (all-flash NVMe)",
			Vendors: []string{"vast", "ddn", "weka"}, DefaultVendor: "vast",
			CostPerPB:      CostPerPB{Capex: 30000, OpexAnnual: 6000, FiveYearTotal: 60000},
			Performance:    StoragePerformance{ThroughputGBpsPerPB: 100, LatencyClass: LatencyUltraLow},
			Infrastructure: StorageInfrastructure{MediaType: "nvme-flash", PowerPerPBkW: 6, UsableEfficiency: 0.80},
		},
		{
			Key: "scratch", Name: "Scratch (parallel filesystem)",
			Vendors: []string{"weka", "ddn"}, DefaultVendor: "weka",
			CostPerPB:      CostPerPB{Capex: 35000, OpexAnnual: 7000, FiveYearTotal: 70000},
			Performance:    StoragePerformance{ThroughputGBpsPerPB: 150, LatencyClass: LatencyUltraLow},
			Infrastructure: StorageInfrastructure{MediaType: "nvme-flash", PowerPerPBkW: 7, UsableEfficiency: 0.85},
		},
		{
			Key: "warm", Name: "Warm (QLC flash)",
			Vendors: []string{"pure", "netapp", "vast"}, DefaultVendor: "pure",
			CostPerPB:      CostPerPB{Capex: 25000, OpexAnnual: 3500, FiveYearTotal: 42500},
			Performance:    StoragePerformance{ThroughputGBpsPerPB: 40, LatencyClass: LatencyLow},
			Infrastructure: StorageInfrastructure{MediaType: "qlc-flash", PowerPerPBkW: 5, UsableEfficiency: 0.75},
		},
		{
			Key: "cold", Name: "Cold (HDD object)",
			Vendors: []string{"dell-powerscale", "ceph"}, DefaultVendor: "dell-powerscale",
			CostPerPB:      CostPerPB{Capex: 15000, OpexAnnual: 1500, FiveYearTotal: 22500},
			Performance:    StoragePerformance{ThroughputGBpsPerPB: 10, LatencyClass: LatencyMedium},
			Infrastructure: StorageInfrastructure{MediaType: "hdd", PowerPerPBkW: 4, UsableEfficiency: 0.70},
		},
		{
			Key: "archive", Name: "Archive (tape)",
			Vendors: []string{"spectra-tape"}, DefaultVendor: "spectra-tape",
			CostPerPB:      CostPerPB{Capex: 4000, OpexAnnual: 400, FiveYearTotal: 6000},
			Performance:    StoragePerformance{ThroughputGBpsPerPB: 1, LatencyClass: LatencyHigh},
			Infrastructure: StorageInfrastructure{MediaType: "tape", PowerPerPBkW: 0.5, UsableEfficiency: 0.90},
		},
	}

	m := make(map[string]StorageArchitecture, len(tiers))
	for _, t := range tiers {
		m[t.Key] = t
	}
	return m
}
