package entity

import (
	"time"

	"github.com/google/uuid"
)

// CheckInMethod describes how the attendance was recorded
type CheckInMethod string

const (
	CheckInMethodManual   CheckInMethod = "manual"
	CheckInMethodQRCode   CheckInMethod = "qr_code"
	CheckInMethodGeofence CheckInMethod = "geofence"
)

// EventCheckIn is an attendance record. Unique on (event_id, user_id).
// No-show rows are written when the event completes.
type EventCheckIn struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	EventID     uuid.UUID     `db:"event_id" json:"event_id"`
	UserID      uuid.UUID     `db:"user_id" json:"user_id"`
	Method      CheckInMethod `db:"method" json:"method"`
	Lat         *float64      `db:"lat" json:"lat,omitempty"`
	Lng         *float64      `db:"lng" json:"lng,omitempty"`
	CheckedInAt time.Time     `db:"checked_in_at" json:"checked_in_at"`
	IsNoShow    bool          `db:"is_no_show" json:"is_no_show"`
}
