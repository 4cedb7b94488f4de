package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/issaclevi/wayzx-backend/internal/models"
)

// Named presets
const (
	PresetFullTime = "FullTime"
	PresetMorning  = "Morning"
	PresetEvening  = "Evening"
	DefaultPreset  = "3H"
)

var (
	literalPresets = map[string][]string{
		PresetMorning: {"09:00AM", "10:00AM", "11:00AM", "12:00PM"},
		PresetEvening: {"01:00PM", "02:00PM", "03:00PM", "04:00PM", "05:00PM", "06:00PM"},
	}
	hourPresetPattern = regexp.MustCompile(`^([1-9][0-9]?)H$`)
)

// IsPreset reports whether name is a known preset
func IsPreset(name string) bool {
	if name == PresetFullTime || hourPresetPattern.MatchString(name) {
		return true
	}
	_, ok := literalPresets[name]
	return ok
}

// ParseSlotRequest normalizes the raw time fields of a booking request into a SlotRequest.
// Items are either all strings (one preset, or discrete labels) or all {start,end} ranges.
func ParseSlotRequest(startTime string, duration int, items []models.SlotItem) (models.SlotRequest, error) {
	startTime = strings.TrimSpace(startTime)

	var (
		labels []string
		ranges []models.TimeRange
	)
	for _, item := range items {
		if item.Range != nil {
			ranges = append(ranges, *item.Range)
			continue
		}
		if label := strings.TrimSpace(item.Label); label != "" {
			labels = append(labels, label)
		}
	}

	switch {
	case len(ranges) > 0 && len(labels) > 0:
		return models.SlotRequest{}, validationf("timeRanges", "cannot mix slot labels and start/end ranges")
	case len(ranges) > 0:
		return models.SlotRequest{Kind: models.SlotRequestRanges, Ranges: ranges}, nil
	case len(labels) == 1 && IsPreset(labels[0]):
		return models.SlotRequest{Kind: models.SlotRequestPreset, Preset: labels[0], StartTime: startTime}, nil
	case len(labels) > 0:
		for _, l := range labels {
			if IsPreset(l) {
				return models.SlotRequest{}, validationf("timeRanges", "preset %q cannot be combined with other slots", l)
			}
		}
		return models.SlotRequest{Kind: models.SlotRequestDiscrete, Labels: labels}, nil
	case startTime != "" && duration > 0:
		return models.SlotRequest{Kind: models.SlotRequestWindow, StartTime: startTime, Count: duration}, nil
	case startTime != "":
		return models.SlotRequest{Kind: models.SlotRequestPreset, Preset: DefaultPreset, StartTime: startTime}, nil
	}
	return models.SlotRequest{}, validationf("timeRanges", "timeRanges or start_time is required")
}

// SlotResolver turns a SlotRequest into the canonical slot set for a space type
type SlotResolver struct{}

// NewSlotResolver creates a new slot resolver
func NewSlotResolver() *SlotResolver {
	return &SlotResolver{}
}

// Resolve applies the space type's slot policy to the request
func (r *SlotResolver) Resolve(spaceType *models.SpaceType, req models.SlotRequest) (models.ResolvedSlots, error) {
	if len(spaceType.AllowedSlots) == 0 {
		return models.ResolvedSlots{}, validationf("spaceTypeId", "space type %s has no allowed slots", spaceType.Name)
	}

	// A preset name the space type lists as a slot of its own is booked as that label.
	if req.Kind == models.SlotRequestPreset && spaceType.SlotIndex(req.Preset) >= 0 {
		req = models.SlotRequest{Kind: models.SlotRequestDiscrete, Labels: []string{req.Preset}}
	}

	if spaceType.IsMeetingRoom() {
		return r.resolveMeetingRoom(spaceType, req)
	}

	var (
		labels []string
		err    error
	)
	switch req.Kind {
	case models.SlotRequestRanges:
		ranges, err := normalizeRanges(req.Ranges)
		if err != nil {
			return models.ResolvedSlots{}, err
		}
		return models.ResolvedSlots{Kind: models.SlotKindRanges, Ranges: ranges}, nil
	case models.SlotRequestPreset:
		labels, err = r.resolvePreset(spaceType, req)
	case models.SlotRequestWindow:
		labels, err = window(spaceType, req.StartTime, req.Count)
	case models.SlotRequestDiscrete:
		labels, err = r.resolveDiscrete(spaceType, req.Labels)
	default:
		return models.ResolvedSlots{}, validationf("timeRanges", "unsupported slot request")
	}
	if err != nil {
		return models.ResolvedSlots{}, err
	}

	if spaceType.SlotBehavior == models.SlotBehaviorFullBlock {
		labels = append([]string(nil), spaceType.AllowedSlots...)
	}
	return models.ResolvedSlots{Kind: models.SlotKindLabels, Labels: labels}, nil
}

func (r *SlotResolver) resolveMeetingRoom(spaceType *models.SpaceType, req models.SlotRequest) (models.ResolvedSlots, error) {
	if req.Kind == models.SlotRequestDiscrete && len(req.Labels) == 1 && spaceType.SlotIndex(req.Labels[0]) >= 0 {
		return models.ResolvedSlots{Kind: models.SlotKindLabels, Labels: req.Labels}, nil
	}

	name := req.Preset
	if req.Kind == models.SlotRequestDiscrete && len(req.Labels) > 0 {
		name = req.Labels[0]
	}
	preset, ok := literalPresets[name]
	if req.Kind != models.SlotRequestPreset || !ok {
		return models.ResolvedSlots{}, &SlotError{
			Kind:    ErrInvalidPreset,
			Slot:    name,
			Message: fmt.Sprintf("invalid time range %q for meeting room, use %q or %q", name, PresetMorning, PresetEvening),
		}
	}

	labels, err := r.resolveDiscrete(spaceType, preset)
	if err != nil {
		return models.ResolvedSlots{}, err
	}
	return models.ResolvedSlots{Kind: models.SlotKindLabels, Labels: labels}, nil
}

func (r *SlotResolver) resolvePreset(spaceType *models.SpaceType, req models.SlotRequest) ([]string, error) {
	if preset, ok := literalPresets[req.Preset]; ok {
		return r.resolveDiscrete(spaceType, preset)
	}

	if req.Preset == PresetFullTime {
		if req.StartTime == "" {
			return append([]string(nil), spaceType.AllowedSlots...), nil
		}
		idx := spaceType.SlotIndex(req.StartTime)
		if idx < 0 {
			return nil, invalidSlot(req.StartTime)
		}
		return append([]string(nil), spaceType.AllowedSlots[idx:]...), nil
	}

	m := hourPresetPattern.FindStringSubmatch(req.Preset)
	if m == nil {
		return nil, &SlotError{Kind: ErrInvalidPreset, Slot: req.Preset, Message: fmt.Sprintf("unknown preset %q", req.Preset)}
	}
	if req.StartTime == "" {
		return nil, validationf("start_time", "start_time is required for non-meeting space types")
	}
	count, _ := strconv.Atoi(m[1])
	return window(spaceType, req.StartTime, count)
}

func (r *SlotResolver) resolveDiscrete(spaceType *models.SpaceType, labels []string) ([]string, error) {
	picked := make(map[int]bool, len(labels))
	for _, label := range labels {
		idx := spaceType.SlotIndex(label)
		if idx < 0 {
			return nil, invalidSlot(label)
		}
		picked[idx] = true
	}

	indexes := make([]int, 0, len(picked))
	for idx := range picked {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	if spaceType.SlotBehavior == models.SlotBehaviorConsecutive {
		for i := 1; i < len(indexes); i++ {
			if indexes[i] != indexes[i-1]+1 {
				return nil, validationf("timeRanges", "slots must be consecutive for %s", spaceType.Name)
			}
		}
	}

	resolved := make([]string, len(indexes))
	for i, idx := range indexes {
		resolved[i] = spaceType.AllowedSlots[idx]
	}
	return resolved, nil
}

func window(spaceType *models.SpaceType, startTime string, count int) ([]string, error) {
	if count < 1 {
		return nil, validationf("duration", "duration must be at least 1 slot")
	}
	idx := spaceType.SlotIndex(startTime)
	if idx < 0 {
		return nil, invalidSlot(startTime)
	}
	available := len(spaceType.AllowedSlots) - idx
	if available < count {
		return nil, &SlotError{
			Kind:    ErrInsufficientSlots,
			Slot:    startTime,
			Message: fmt.Sprintf("only %d slots available from %s, but %d requested", available, startTime, count),
		}
	}
	return append([]string(nil), spaceType.AllowedSlots[idx:idx+count]...), nil
}

func invalidSlot(label string) error {
	return &SlotError{Kind: ErrInvalidSlot, Slot: label, Message: fmt.Sprintf("slot %q is not allowed", label)}
}

// normalizeRanges parses, validates and sorts explicit ranges, rewriting them as HH:MM
func normalizeRanges(ranges []models.TimeRange) ([]models.TimeRange, error) {
	intervals := make([]models.Interval, 0, len(ranges))
	for _, tr := range ranges {
		start, err := ParseClock(tr.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(tr.End)
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, validationf("timeRanges", "end %s must be after start %s", tr.End, tr.Start)
		}
		intervals = append(intervals, models.Interval{Start: start, End: end})
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Overlaps(intervals[i-1]) {
			return nil, validationf("timeRanges", "requested ranges %s and %s overlap",
				FormatInterval(intervals[i-1]), FormatInterval(intervals[i]))
		}
	}

	normalized := make([]models.TimeRange, len(intervals))
	for i, iv := range intervals {
		normalized[i] = models.TimeRange{Start: FormatClock(iv.Start), End: FormatClock(iv.End)}
	}
	return normalized, nil
}

var clockLayouts = []string{"15:04", "03:04PM", "3:04PM", "03:04 PM", "3:04 PM", "03PM", "3PM"}

// ParseClock parses a wall-clock time into minutes since midnight.
// Accepts 24-hour "HH:MM" (with "24:00" as end of day) and 12-hour "hh:mmAM" forms.
func ParseClock(s string) (int, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "24:00" {
		return 24 * 60, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, &SlotError{Kind: ErrInvalidTimeFormat, Slot: s, Message: fmt.Sprintf("invalid time format %q, use HH:MM or hh:mmAM", s)}
}

// FormatClock renders minutes since midnight as HH:MM
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatInterval renders an interval as HH:MM-HH:MM
func FormatInterval(iv models.Interval) string {
	return FormatClock(iv.Start) + "-" + FormatClock(iv.End)
}

// SlotIntervals returns the clock intervals of a resolved slot set. Labels that are not
// clock times (such as "3H") have no interval and are only tracked by the ledger.
func SlotIntervals(slots models.ResolvedSlots, slotLength time.Duration) []slotInterval {
	var out []slotInterval
	if slots.Kind == models.SlotKindRanges {
		for _, tr := range slots.Ranges {
			start, err1 := ParseClock(tr.Start)
			end, err2 := ParseClock(tr.End)
			if err1 != nil || err2 != nil {
				continue
			}
			iv := models.Interval{Start: start, End: end}
			out = append(out, slotInterval{Interval: iv, Name: FormatInterval(iv), IsRange: true})
		}
		return out
	}

	length := int(slotLength / time.Minute)
	for _, label := range slots.Labels {
		start, err := ParseClock(label)
		if err != nil {
			continue
		}
		out = append(out, slotInterval{Interval: models.Interval{Start: start, End: start + length}, Name: label})
	}
	return out
}

type slotInterval struct {
	models.Interval
	Name    string
	IsRange bool
}
