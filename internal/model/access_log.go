package model

import "time"

const (
	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// Decision reasons recorded in the audit trail.
const (
	ReasonAuthorized         = "authorized"
	ReasonPlateNotAuthorized = "plate_not_authorized"
	ReasonLockdownActive     = "lockdown_mode_active"
	ReasonConfidenceBelow    = "confidence_below_threshold"
	ReasonGateOpened         = "gate_opened"
	ReasonGateOpenFailed     = "gate_open_failed"
)

// AccessLog is one immutable audit record of a plate decision or a gate
// relay outcome. Rows are never updated or deleted.
type AccessLog struct {
	ID            string    `json:"id"`
	CommunityID   string    `json:"community_id"`
	PodID         *string   `json:"pod_id,omitempty"`
	Plate         string    `json:"plate"`
	Decision      string    `json:"decision"`
	Reason        string    `json:"reason"`
	AccessType    string    `json:"access_type,omitempty"`
	VendorName    *string   `json:"vendor_name,omitempty"`
	Confidence    int       `json:"confidence"`
	GateTriggered bool      `json:"gate_triggered"`
	SnapshotKey   *string   `json:"snapshot_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
