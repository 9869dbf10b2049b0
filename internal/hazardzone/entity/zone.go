package entity

import "time"

// HazardZone is an unowned risk-category tag. Name uniqueness is enforced by
// the hazard_zones unique constraint, not just validated here.
type HazardZone struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultColor marks low risk (green); red and yellow codes are picked by
// the client for high and medium risk zones.
const DefaultColor = "#16a34a"
