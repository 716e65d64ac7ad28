package types

// Asset is one row of the fleet's identity table. It links the balancing
// mechanism unit, the frequency response auction unit and the human site name.
type Asset struct {
	Site                string  `json:"site" yaml:"site"`
	Owner               string  `json:"owner" yaml:"owner"`
	Optimiser           string  `json:"optimiser" yaml:"optimiser"`
	BalancingUnitID     string  `json:"balancingUnitID" yaml:"bmu_id"`
	FrequencyResponseID string  `json:"frequencyResponseID,omitempty" yaml:"dfr_id"`
	MW                  float64 `json:"mw" yaml:"mw"`
	MWh                 float64 `json:"mwh" yaml:"mwh"`
}

// EnrolledInAuction returns true if the asset has a frequency response unit.
func (a Asset) EnrolledInAuction() bool {
	return a.FrequencyResponseID != ""
}
