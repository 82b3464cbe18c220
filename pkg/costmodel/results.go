package costmodel

type LineItemKind string

const (
	KindCapex LineItemKind = "capex"
	KindOpex  LineItemKind = "opex"
)

// LineItem is one row of the cost breakdown table.
type LineItem struct {
	Category string       `json:"category"`
	Item     string       `json:"item"`
	Quantity float64      `json:"quantity"`
	Unit     string       `json:"unit,omitempty"`
	UnitCost float64      `json:"unitCost"`
	Total    float64      `json:"total"`
	Kind     LineItemKind `json:"kind"`
}

type CapexBreakdown struct {
	GPU        float64 `json:"gpu"`
	Storage    float64 `json:"storage"`
	Network    float64 `json:"network"`
	Cooling    float64 `json:"cooling"`
	Datacenter float64 `json:"datacenter"`
	DPU        float64 `json:"dpu"`
	Software   float64 `json:"software"`
	Total      float64 `json:"total"`
}

func (c *CapexBreakdown) sum() {
	c.Total = c.GPU + c.Storage + c.Network + c.Cooling + c.Datacenter + c.DPU + c.Software
}

// OpexBreakdown is annual.
type OpexBreakdown struct {
	Power       float64 `json:"power"`
	Cooling     float64 `json:"cooling"`
	Staff       float64 `json:"staff"`
	Maintenance float64 `json:"maintenance"`
	Storage     float64 `json:"storage"`
	Bandwidth   float64 `json:"bandwidth"`
	Software    float64 `json:"software"`
	Total       float64 `json:"total"`
}

func (o *OpexBreakdown) sum() {
	o.Total = o.Power + o.Cooling + o.Staff + o.Maintenance + o.Storage + o.Bandwidth + o.Software
}

// Results is the complete output of one ComputeTCO invocation. Every invocation returns a new
// value; nothing is shared with the inputs.
type Results struct {
	Configuration Configuration `json:"configuration"`
	Pricing       Pricing       `json:"pricing"`

	Sizing   Sizing        `json:"sizing"`
	Power    PowerResult   `json:"power"`
	Network  NetworkResult `json:"network"`
	Storage  StorageResult `json:"storage"`
	Software StackCost     `json:"software"`

	Capex CapexBreakdown `json:"capex"`
	Opex  OpexBreakdown  `json:"opex"`

	OpsFTEs            int             `json:"opsFTEs"`
	AnnualDepreciation float64         `json:"annualDepreciation"`
	CostPerGPUHour     float64         `json:"costPerGPUHour"`
	TCOYears           int             `json:"tcoYears"`
	TCO                float64         `json:"tco"`
	TCOByYears         map[int]float64 `json:"tcoByYears"`

	Revenue *Revenue `json:"revenue,omitempty"`

	LineItems        []LineItem `json:"lineItems"`
	Warnings         []string   `json:"warnings"`
	AppliedOverrides []string   `json:"appliedOverrides"`
}

// TCOFor returns capex plus n years of opex.
func (r *Results) TCOFor(years int) float64 {
	return r.Capex.Total + r.Opex.Total*float64(years)
}
