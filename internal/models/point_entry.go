package models

// PointKind tells whether a ledger entry adds or removes points.
type PointKind string

const (
	PointKindEarned   PointKind = "earned"
	PointKindRedeemed PointKind = "redeemed"
)

// PointEntry is one row of the reward points ledger. Points is negative for redemptions.
type PointEntry struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Points      int64     `gorm:"not null" json:"points"`
	Kind        PointKind `gorm:"not null" json:"kind"`
	Reason      string    `gorm:"not null;index" json:"reason"`
	Description string    `json:"description"`
}
