package timekeeper

import "time"

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventTick          EventType = "tick"
	EventPhaseAdvanced EventType = "phase_advanced"
	EventCompleted     EventType = "completed"
)

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type    EventType
	TimerID string
	Label   string
	Phase   int
	Delta   time.Duration
	Running int
	At      time.Time
}
