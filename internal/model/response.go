package model

// GoalResponse is the listing payload returned to the transport layer:
// one page of goals plus the owner's total goal count. The total is the
// owner's overall count, not the count matching the active filter.
type GoalResponse struct {
	Goals      []Goal `json:"goals"`
	TotalGoals int64  `json:"totalgoals"`
}
