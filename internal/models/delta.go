package models

// DeltaRecord is a redress event expressed as days since Day 0.
// Delta is negative when the redress was captured before the official mailing date.
type DeltaRecord struct {
	Delta  int    `json:"delta_days"`
	Reason string `json:"reason"`
}
