package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GoalStatus is the lifecycle state of a goal, stored and exchanged as a
// one-letter code ("A", "D", "C") rather than the display name.
type GoalStatus string

const (
	StatusActive    GoalStatus = "A"
	StatusDeferred  GoalStatus = "D"
	StatusCompleted GoalStatus = "C"
)

// ParseGoalStatus resolves a status code case-insensitively.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch strings.ToUpper(s) {
	case string(StatusActive):
		return StatusActive, nil
	case string(StatusDeferred):
		return StatusDeferred, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown goal status %q", s)
}

// GoalLevel is the difficulty of a goal.
type GoalLevel string

const (
	LevelEasy     GoalLevel = "Easy"
	LevelModerate GoalLevel = "Moderate"
	LevelExtreme  GoalLevel = "Extreme"
)

func ParseGoalLevel(s string) (GoalLevel, error) {
	switch strings.ToLower(s) {
	case "easy":
		return LevelEasy, nil
	case "moderate":
		return LevelModerate, nil
	case "extreme":
		return LevelExtreme, nil
	}
	return "", fmt.Errorf("unknown goal level %q", s)
}

// Notes is the free-form note list attached to a goal. It is replaced
// wholesale on update and persisted as a JSON text column.
type Notes []string

func (n Notes) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (n *Notes) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), n)
	case []byte:
		return json.Unmarshal(v, n)
	}
	return fmt.Errorf("cannot scan %T into Notes", src)
}

// Goal is a user-owned task with a difficulty level and lifecycle status.
// ID is assigned by the repository on first save. The (UserID, Name) pair
// is unique; the goals table enforces it with a composite unique index.
type Goal struct {
	ID          string     `db:"id" json:"id,omitempty"`
	UserID      string     `db:"user_id" json:"userId,omitempty"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description,omitempty"`
	Notes       Notes      `db:"notes" json:"notes,omitempty"`
	Level       GoalLevel  `db:"level" json:"level,omitempty"`
	Status      GoalStatus `db:"status" json:"status"`
	DueDate     *Date      `db:"due_date" json:"dueDate,omitempty"`
	CompletedOn *Date      `db:"completed_on" json:"completedOn,omitempty"`
	Votes       int        `db:"votes" json:"votes"`
	CreatedAt   time.Time  `db:"created_at" json:"-"`
	UpdatedAt   time.Time  `db:"updated_at" json:"-"`
}
