package costmodel

import (
	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/util/mathutil"
)

// Sizing is the deployable quantity for a requested GPU count. Partial systems cannot be
// purchased, so ActualGPUs is the requested count rounded up to whole systems.
type Sizing struct {
	RequestedGPUs int `json:"requestedGPUs"`
	GPUsPerSystem int `json:"gpusPerSystem"`
	Systems       int `json:"systems"`
	ActualGPUs    int `json:"actualGPUs"`
	Racks         int `json:"racks"`
	GPUsPerPod    int `json:"gpusPerPod"`
	Pods          int `json:"pods"`
}

// ComputeSizing returns the number of systems and GPUs needed to cover requested GPUs with
// systems of rackSize GPUs each.
func ComputeSizing(requested, rackSize int) (systems, actualGPUs int) {
	systems = mathutil.CeilDiv(requested, rackSize)
	return systems, systems * rackSize
}

// SizeCluster expands ComputeSizing into rack and pod counts for a GPU system type.
func SizeCluster(gpu catalog.GPUSpec, requested int) Sizing {
	systems, actual := ComputeSizing(requested, gpu.RackSize)

	s := Sizing{
		RequestedGPUs: requested,
		GPUsPerSystem: gpu.RackSize,
		Systems:       systems,
		ActualGPUs:    actual,
		GPUsPerPod:    gpu.GPUsPerPod(),
	}
	s.Racks = mathutil.CeilDiv(systems, gpu.NodesPerRack())
	s.Pods = mathutil.CeilDiv(actual, s.GPUsPerPod)
	return s
}
