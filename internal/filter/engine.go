// Package filter decides which subscribers are alerted about a slot.
package filter

import "seat_tracker/internal/model"

// Match reports whether a subscriber with preference pref wants slot.
// PreferenceBoth matches every slot; PreferenceUni requires the @UNI flag and
// PreferenceHome the @HOME flag. Unknown preferences match nothing.
func Match(pref model.Preference, slot model.Slot) bool {
	switch pref {
	case model.PreferenceBoth, "":
		return true
	case model.PreferenceUni:
		return slot.AtUni
	case model.PreferenceHome:
		return slot.AtHome
	}
	return false
}

// Subscribers returns the subscribers in subs whose preference matches slot.
func Subscribers(subs []model.Subscriber, slot model.Slot) []model.Subscriber {
	var matched []model.Subscriber
	for _, s := range subs {
		if Match(s.Preference, slot) {
			matched = append(matched, s)
		}
	}
	return matched
}
