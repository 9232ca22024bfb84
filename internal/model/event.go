package model

import "time"

// EventType identifies a lifecycle notification. The TASK_* variants are
// reserved for the task service that shares the outbound channel.
type EventType string

const (
	EventTaskAdded     EventType = "TASK_ADDED"
	EventTaskCompleted EventType = "TASK_COMPLETED"
	EventGoalAdded     EventType = "GOAL_ADDED"
	EventGoalDeferred  EventType = "GOAL_DEFERRED"
	EventGoalResumed   EventType = "GOAL_RESUMED"
	EventGoalCompleted EventType = "GOAL_COMPLETED"
)

// Event is an immutable lifecycle notification. Data carries a snapshot
// of the goal at the moment of the transition.
type Event struct {
	Type      EventType `json:"eventType"`
	Key       string    `json:"key"`
	Data      Goal      `json:"data"`
	CreatedAt time.Time `json:"eventCreatedAt"`
}

// NewEvent stamps the creation time at construction.
func NewEvent(t EventType, key string, data Goal) Event {
	return Event{
		Type:      t,
		Key:       key,
		Data:      data,
		CreatedAt: time.Now(),
	}
}
