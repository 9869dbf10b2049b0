package entity

import (
	"time"

	zoneentity "github.com/safesite/service-compliance-core/internal/hazardzone/entity"
)

// Frequency values a protocol may carry.
const (
	FrequencyDaily      = "DAILY"
	FrequencyWeekly     = "WEEKLY"
	FrequencyMonthly    = "MONTHLY"
	FrequencyShiftStart = "SHIFT_START"
	FrequencyShiftEnd   = "SHIFT_END"
)

// ValidFrequency reports whether f is one of the closed enum values.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyShiftStart, FrequencyShiftEnd:
		return true
	}
	return false
}

// Protocol is a recurring safety-inspection definition owned by one user.
type Protocol struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Frequency   string    `db:"frequency" json:"frequency"`
	TargetCount int       `db:"target_count" json:"targetCount"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ProtocolWithZones is the response shape for protocol reads: the protocol
// plus its resolved hazard-zone set.
type ProtocolWithZones struct {
	Protocol
	Zones []zoneentity.HazardZone `json:"zones"`
}

// ProtocolDetail additionally carries the most recent compliance logs.
type ProtocolDetail struct {
	Protocol
	Zones          []zoneentity.HazardZone `json:"zones"`
	ComplianceLogs []ComplianceLog         `json:"complianceLogs"`
}

// ComplianceLog is proof that a protocol's inspection was completed on a
// given date. Immutable once created; its lifetime is bounded by the parent
// protocol via the schema cascade.
type ComplianceLog struct {
	ID             string    `db:"id" json:"id"`
	ProtocolID     string    `db:"protocol_id" json:"protocolId"`
	CompletionDate time.Time `db:"completion_date" json:"completionDate"`
	Note           *string   `db:"note" json:"note,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
