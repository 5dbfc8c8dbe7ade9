package model

import "time"

// Access entry types, in no particular precedence order. A plate may hold
// several entries of different types within one community.
const (
	AccessTypeEmergency  = "emergency"
	AccessTypeDelivery   = "delivery"
	AccessTypeService    = "service"
	AccessTypeContractor = "contractor"
	AccessTypeResident   = "resident"
	AccessTypeVisitor    = "visitor"
)

// AllDays is the days_active bitmask covering every day of the week.
// Bit 0 is Sunday, matching time.Weekday.
const AllDays = 0x7F

// DayBit returns the days_active mask bit for a weekday.
func DayBit(d time.Weekday) int {
	return 1 << uint(d)
}

// AccessEntry grants conditional access to one plate within a community.
type AccessEntry struct {
	ID          string  `json:"id"`
	CommunityID string  `json:"community_id"`
	Plate       string  `json:"plate"`
	Type        string  `json:"type"`
	VendorName  *string `json:"vendor_name,omitempty"`
	// ScheduleStart and ScheduleEnd are "HH:MM" time-of-day bounds. An entry
	// with either bound unset is always-on.
	ScheduleStart *string    `json:"schedule_start,omitempty"`
	ScheduleEnd   *string    `json:"schedule_end,omitempty"`
	DaysActive    int        `json:"days_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
