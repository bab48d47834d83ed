package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// VenueKind tags the two venue variants of a place option.
type VenueKind string

const (
	VenueInternal VenueKind = "internal"
	VenueExternal VenueKind = "external"
)

// ExternalVenue holds provider-sourced venue data for options not backed
// by the internal place catalog.
type ExternalVenue struct {
	Provider   string   `json:"provider"`
	ExternalID string   `json:"external_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

func (e ExternalVenue) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *ExternalVenue) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, e)
}

// Venue is the tagged variant over internal catalog places and
// externally sourced venues.
type Venue struct {
	Kind     VenueKind      `json:"kind"`
	PlaceID  *uuid.UUID     `json:"place_id,omitempty"`
	External *ExternalVenue `json:"external,omitempty"`
}

// StringList is a jsonb-backed list of short strings (pros/cons).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

// EventPlaceOption is a candidate venue attached to an event for voting.
// Exactly one of PlaceID or External identifies the venue.
type EventPlaceOption struct {
	ID                     uuid.UUID      `db:"id" json:"id"`
	EventID                uuid.UUID      `db:"event_id" json:"event_id"`
	PlaceID                *uuid.UUID     `db:"place_id" json:"place_id,omitempty"`
	External               *ExternalVenue `db:"external_venue" json:"external,omitempty"`
	AiScore                *float64       `db:"ai_score" json:"ai_score,omitempty"`
	Pros                   StringList     `db:"pros" json:"pros,omitempty"`
	Cons                   StringList     `db:"cons" json:"cons,omitempty"`
	EstimatedCostPerPerson *float64       `db:"estimated_cost_per_person" json:"estimated_cost_per_person,omitempty"`
	AddedBy                *uuid.UUID     `db:"added_by" json:"added_by,omitempty"`
	AddedAt                time.Time      `db:"added_at" json:"added_at"`
}

// Venue returns the tagged variant view of the option's venue reference.
func (o *EventPlaceOption) Venue() Venue {
	if o.PlaceID != nil {
		return Venue{Kind: VenueInternal, PlaceID: o.PlaceID}
	}
	return Venue{Kind: VenueExternal, External: o.External}
}

// Validate enforces the exactly-one-venue invariant.
func (o *EventPlaceOption) Validate() error {
	if o.PlaceID != nil && o.External != nil {
		return errors.New("option must reference either an internal place or an external venue, not both")
	}
	if o.PlaceID == nil && o.External == nil {
		return errors.New("option must reference an internal place or an external venue")
	}
	if o.External != nil && (o.External.Provider == "" || o.External.ExternalID == "") {
		return errors.New("external venue requires provider and external_id")
	}
	return nil
}
