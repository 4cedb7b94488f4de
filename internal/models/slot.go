package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TimeRange is an explicit clock range such as {"start":"09:00","end":"10:30"}
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SlotItem is one element of a request's timeRanges array. Clients send either a
// string (preset name or slot label) or a {start,end} object.
type SlotItem struct {
	Label string
	Range *TimeRange
}

// UnmarshalJSON accepts both item shapes
func (s *SlotItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Label)
	}
	if len(data) > 0 && data[0] == '{' {
		var r TimeRange
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		s.Range = &r
		return nil
	}
	return fmt.Errorf("time range item must be a string or an object with start and end")
}

// MarshalJSON writes the item back in the shape it was received
func (s SlotItem) MarshalJSON() ([]byte, error) {
	if s.Range != nil {
		return json.Marshal(s.Range)
	}
	return json.Marshal(s.Label)
}

// SlotRequestKind tags the variant held by a SlotRequest
type SlotRequestKind string

const (
	SlotRequestPreset   SlotRequestKind = "preset"
	SlotRequestWindow   SlotRequestKind = "window"
	SlotRequestDiscrete SlotRequestKind = "discrete"
	SlotRequestRanges   SlotRequestKind = "ranges"
)

// SlotRequest is the normalized form of what a client asked for.
// Only the fields belonging to Kind are meaningful.
type SlotRequest struct {
	Kind      SlotRequestKind
	Preset    string      // preset
	StartTime string      // preset, window
	Count     int         // window
	Labels    []string    // discrete
	Ranges    []TimeRange // ranges
}

// SlotKind distinguishes label slots from clock ranges in a resolved request
type SlotKind string

const (
	SlotKindLabels SlotKind = "labels"
	SlotKindRanges SlotKind = "ranges"
)

// ResolvedSlots is the canonical slot set a booking occupies on each day of its span
type ResolvedSlots struct {
	Kind   SlotKind
	Labels []string
	Ranges []TimeRange
}

// Interval is a half-open clock interval in minutes since midnight
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals intersect. Touching intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}
