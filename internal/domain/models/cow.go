package models

import "time"

// CowStatusActive marks cows that take part in daily monitoring.
const CowStatusActive = "active"

// Cow is the slice of cow master data the monitoring core reads.
type Cow struct {
	CowID     string    `json:"cowId" bson:"cow_id"`
	RFIDUID   string    `json:"rfidUid,omitempty" bson:"rfid_uid,omitempty"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	CowType   CowType   `json:"cowType" bson:"cow_type"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// TagID is the identifier printed on the cow's tag: its RFID uid when linked.
func (c Cow) TagID() string {
	if c.RFIDUID != "" {
		return c.RFIDUID
	}
	return c.CowID
}
