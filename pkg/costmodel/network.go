package costmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/util/mathutil"
)

const (
	leafSwitchesPerPod  = 4
	spineSwitchesPerPod = 4

	// DPUs per rack-scale system, and GPUs per DPU for node systems.
	dpusPerRackScaleSystem = 18
	gpusPerDPU             = 8
)

// coreSwitchBands maps cluster size to a fixed fat-tree core switch count. The bands follow vendor
// reference architectures and are a step function.
var coreSwitchBands = []struct {
	maxGPUs  int
	switches int
}{
	{25_000, 10},
	{50_000, 32},
}

const coreSwitchesLargest = 64

// CoreSwitchesForBand returns the fat-tree core switch count for a cluster of actualGPUs.
func CoreSwitchesForBand(actualGPUs int) int {
	for _, b := range coreSwitchBands {
		if actualGPUs <= b.maxGPUs {
			return b.switches
		}
	}
	return coreSwitchesLargest
}

// ParseOversubscription parses "N:1" style ratios. Any ratio a:b is accepted as a/b, as is a bare
// number. The second return is false when the ratio is unusable.
func ParseOversubscription(ratio string) (float64, bool) {
	ratio = strings.TrimSpace(ratio)
	num, den, hasDen := strings.Cut(ratio, ":")

	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || !mathutil.IsFinite(n) || n <= 0 {
		return 1, false
	}
	if !hasDen {
		return n, true
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || !mathutil.IsFinite(d) || d <= 0 {
		return 1, false
	}
	return n / d, true
}

type NetworkResult struct {
	Fabric           string   `json:"fabric"`
	Topology         Topology `json:"topology"`
	Oversubscription float64  `json:"oversubscription"`
	EffectiveRails   float64  `json:"effectiveRails"`

	Pods          int `json:"pods"`
	LeafSwitches  int `json:"leafSwitches"`
	SpineSwitches int `json:"spineSwitches"`
	CoreSwitches  int `json:"coreSwitches"`
	TotalSwitches int `json:"totalSwitches"`
	Cables        int `json:"cables"`
	Transceivers  int `json:"transceivers"`
	DPUs          int `json:"dpus"`

	SwitchCost      float64 `json:"switchCost"`
	CableCost       float64 `json:"cableCost"`
	TransceiverCost float64 `json:"transceiverCost"`
	// TotalCost is the fabric capex: switches, cables and transceivers. DPUs are reported separately.
	TotalCost float64 `json:"totalCost"`
	DPUCost   float64 `json:"dpuCost"`

	SwitchPowerW      float64 `json:"switchPowerW"`
	TransceiverPowerW float64 `json:"transceiverPowerW"`
	PowerW            float64 `json:"powerW"`
	DPUPowerW         float64 `json:"dpuPowerW"`

	AnnualBandwidthCost float64 `json:"annualBandwidthCost"`
}

// ComputeNetwork synthesizes the fabric for a sized cluster.
func ComputeNetwork(sz Sizing, gpu catalog.GPUSpec, fabric catalog.FabricSpec, cfg Configuration, p Pricing) (NetworkResult, []string) {
	var warnings []string

	oversub, ok := ParseOversubscription(cfg.Oversubscription)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("invalid oversubscription ratio %q, using 1:1", cfg.Oversubscription))
	}

	rails := cfg.RailsPerGPU
	if rails < 1 {
		rails = 1
	}

	topology := cfg.Topology
	switch topology {
	case TopologyFatTree, TopologyDragonfly, TopologyBCube:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown topology %q, using %s", topology, TopologyFatTree))
		topology = TopologyFatTree
	}

	n := NetworkResult{
		Fabric:           fabric.Key,
		Topology:         topology,
		Oversubscription: oversub,
		EffectiveRails:   float64(rails) / oversub,
	}

	if sz.ActualGPUs <= 0 {
		return n, warnings
	}

	n.Pods = sz.Pods
	n.Cables = mathutil.CeilFloat(float64(sz.ActualGPUs) * n.EffectiveRails)
	n.Transceivers = 2 * n.Cables
	endpoints := n.Cables

	ports := fabric.PortsPerSwitch
	if ports < 1 {
		ports = 1
	}

	switch topology {
	case TopologyFatTree:
		n.LeafSwitches = n.Pods * leafSwitchesPerPod
		n.SpineSwitches = n.Pods * spineSwitchesPerPod
		n.CoreSwitches = CoreSwitchesForBand(sz.ActualGPUs)
	case TopologyDragonfly:
		half := ports / 2
		if half < 1 {
			half = 1
		}
		n.LeafSwitches = mathutil.CeilDiv(endpoints, half)
		n.SpineSwitches = mathutil.CeilDiv(n.LeafSwitches, 4)
		n.CoreSwitches = mathutil.CeilDiv(n.SpineSwitches, 8)
	case TopologyBCube:
		n.LeafSwitches = mathutil.CeilDiv(endpoints, ports)
		n.SpineSwitches = n.LeafSwitches
		n.CoreSwitches = mathutil.CeilDiv(n.SpineSwitches, ports)
	}
	n.TotalSwitches = n.LeafSwitches + n.SpineSwitches + n.CoreSwitches

	if cfg.EnableDPU {
		if gpu.IsRackScale() {
			n.DPUs = sz.Systems * dpusPerRackScaleSystem
		} else {
			n.DPUs = mathutil.CeilDiv(sz.ActualGPUs, gpusPerDPU)
		}
	}

	n.SwitchCost = float64(n.TotalSwitches) * p.SwitchPrice
	n.CableCost = float64(n.Cables) * p.CablePrice
	n.TransceiverCost = float64(n.Transceivers) * p.TransceiverPrice
	n.TotalCost = n.SwitchCost + n.CableCost + n.TransceiverCost
	n.DPUCost = float64(n.DPUs) * p.DPUPrice

	n.SwitchPowerW = float64(n.TotalSwitches) * fabric.SwitchPowerW
	n.TransceiverPowerW = float64(n.Transceivers) * p.TransceiverPowerW
	n.PowerW = n.SwitchPowerW + n.TransceiverPowerW
	n.DPUPowerW = float64(n.DPUs) * p.DPUPowerW

	n.AnnualBandwidthCost = float64(sz.ActualGPUs) * p.BandwidthPerGPUYear

	return n, warnings
}
