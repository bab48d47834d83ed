package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventAuditLog is an immutable status-transition record. Append-only;
// reschedules are encoded with OldStatus == NewStatus.
type EventAuditLog struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	EventID        uuid.UUID   `db:"event_id" json:"event_id"`
	OldStatus      EventStatus `db:"old_status" json:"old_status"`
	NewStatus      EventStatus `db:"new_status" json:"new_status"`
	ChangedBy      *uuid.UUID  `db:"changed_by" json:"changed_by,omitempty"`
	Reason         string      `db:"reason" json:"reason"`
	AdditionalData JSONB       `db:"additional_data" json:"additional_data,omitempty"`
	ChangedAt      time.Time   `db:"changed_at" json:"changed_at"`
}
