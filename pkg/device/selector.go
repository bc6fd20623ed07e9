package device

import "strings"

// Camera selection heuristic over driver-reported labels.
//
// Labels are opaque strings provided by the host, so this is a documented
// fallback order, not a hardware guarantee. All functions tolerate empty
// and unexpected labels and never panic.

// rearMarkers are label substrings that indicate a rear/environment lens.
var rearMarkers = []string{"back", "rear", "environment"}

// frontMarkers are label substrings that indicate a front/user lens.
var frontMarkers = []string{"front", "user"}

// SelectDefault picks the default capture device from a catalog snapshot.
// Priority order:
//  1. first device whose label contains both "back" and "0"
//     (primary wide rear lens on multi-lens phones)
//  2. first device whose label contains a rear marker
//  3. first device in catalog order
//
// Returns nil for an empty catalog.
func SelectDefault(catalog []VideoDevice) *VideoDevice {
	if len(catalog) == 0 {
		return nil
	}

	for i := range catalog {
		label := strings.ToLower(catalog[i].Label)
		if strings.Contains(label, "back") && strings.Contains(label, "0") {
			return &catalog[i]
		}
	}

	if d := firstMatching(catalog, rearMarkers); d != nil {
		return d
	}

	return &catalog[0]
}

// SelectCounterpart resolves the opposite-facing lens for a flip command.
// From a rear device it looks for a front lens and vice versa; when labels
// resolve nothing it cycles to the next device after currentID in catalog
// order, wrapping around. Returns nil for an empty catalog.
func SelectCounterpart(catalog []VideoDevice, currentID string) *VideoDevice {
	if len(catalog) == 0 {
		return nil
	}

	current := -1
	for i := range catalog {
		if catalog[i].ID == currentID {
			current = i
			break
		}
	}

	var counterpart *VideoDevice
	if current >= 0 && IsRear(catalog[current].Label) {
		counterpart = firstMatching(catalog, frontMarkers)
	} else {
		counterpart = firstMatching(catalog, rearMarkers)
	}
	if counterpart != nil && counterpart.ID != currentID {
		return counterpart
	}

	// Labels resolved nothing useful: cycle to the next device.
	if current < 0 {
		return &catalog[0]
	}
	return &catalog[(current+1)%len(catalog)]
}

// IsRear reports whether a label matches the rear-lens heuristic.
func IsRear(label string) bool {
	return containsAny(strings.ToLower(label), rearMarkers)
}

// IsFront reports whether a label matches the front-lens heuristic.
func IsFront(label string) bool {
	return containsAny(strings.ToLower(label), frontMarkers)
}

func firstMatching(catalog []VideoDevice, markers []string) *VideoDevice {
	for i := range catalog {
		if containsAny(strings.ToLower(catalog[i].Label), markers) {
			return &catalog[i]
		}
	}
	return nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
