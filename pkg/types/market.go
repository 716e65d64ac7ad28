package types

import "time"

// PhysicalInterval is one segment of a physical notification, the contracted
// power trajectory an asset submits for a settlement period. Levels are in MW.
type PhysicalInterval struct {
	BalancingUnitID    string    `json:"bmUnit"`
	NationalGridBMUnit string    `json:"nationalGridBmUnit"`
	SettlementDate     string    `json:"settlementDate"`
	SettlementPeriod   int       `json:"settlementPeriod"`
	TimeFrom           time.Time `json:"timeFrom"`
	TimeTo             time.Time `json:"timeTo"`
	LevelFrom          float64   `json:"levelFrom"`
	LevelTo            float64   `json:"levelTo"`
}

// MarketIndexQuote is a single provider's market index price for a settlement
// period. Price is in £/MWh and Volume in MWh.
type MarketIndexQuote struct {
	Provider         string  `json:"dataProvider"`
	SettlementDate   string  `json:"settlementDate"`
	SettlementPeriod int     `json:"settlementPeriod"`
	Price            float64 `json:"price"`
	Volume           float64 `json:"volume"`
}

// SystemPrice is the published system price for a settlement period in £/MWh.
type SystemPrice struct {
	SettlementDate   string  `json:"settlementDate"`
	SettlementPeriod int     `json:"settlementPeriod"`
	Price            float64 `json:"systemSellPrice"`
}

// BalancingRecord is an accepted bid or offer from the balancing mechanism.
// Price is in £/MWh and Volume in MWh, signed.
type BalancingRecord struct {
	BalancingUnitID  string  `json:"sys_price_id"`
	SettlementDate   string  `json:"date"`
	SettlementPeriod int     `json:"period"`
	RecordType       string  `json:"record_type"`
	Price            float64 `json:"price"`
	Volume           float64 `json:"volume"`
	SOFlag           bool    `json:"so_flag"`
}

// AuctionRecord is a cleared frequency response auction result for one unit
// and one EFA block.
type AuctionRecord struct {
	Company       string  `json:"company"`
	UnitName      string  `json:"unit_name"`
	EFADate       string  `json:"efa_date"`
	DeliveryStart string  `json:"delivery_start"`
	DeliveryEnd   string  `json:"delivery_end"`
	EFABlock      int     `json:"efa"`
	Service       string  `json:"service"`
	ClearedVolume float64 `json:"cleared_volume"`
	ClearingPrice float64 `json:"clearing_price"`
	Technology    string  `json:"technology_type"`
	Cancelled     bool    `json:"cancelled"`
}
