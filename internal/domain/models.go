package domain

import "time"

// Status is a snapshot of the player taken by a single probe.
// Position is not guaranteed to be <= Duration; players report it with latency.
type Status struct {
	// Path identifies the loaded track (file path or URL), empty if none
	Path string
	// Playing is true while playing, false when paused or stopped
	Playing bool

	Artist string
	Album  string
	Title  string
	Genre  string
	Date   string

	// Duration and Position are in whole seconds
	Duration int
	Position int
}

// Changed reports whether s differs from prev in track or play state.
func (s Status) Changed(prev Status) bool {
	return s.Path != prev.Path || s.Playing != prev.Playing
}

// PlayState returns a human readable play state
func (s Status) PlayState() string {
	if s.Playing {
		return "playing"
	}
	return "paused"
}

// Button is a clickable link shown under the presence
type Button struct {
	Label string
	URL   string
}

// PresenceUpdate is the payload pushed to the presence service
type PresenceUpdate struct {
	State      string
	Details    string
	LargeImage string
	SmallImage string
	// Start is the elapsed-time origin; zero means no timestamp
	Start   time.Time
	Buttons []Button
}
