package service

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nikhilm/hourglass-goal-service/internal/event"
	"github.com/nikhilm/hourglass-goal-service/internal/model"
	"github.com/nikhilm/hourglass-goal-service/internal/repository"
)

var (
	ErrGoalConflict = errors.New("goal name already taken for this user")
	ErrGoalNotFound = repository.ErrGoalNotFound
)

// GoalService owns the goal lifecycle and the listing query engine.
// pageSize is process-wide configuration, fixed for the process lifetime.
type GoalService struct {
	repo      repository.GoalRepository
	publisher event.Publisher
	pageSize  int
}

func NewGoalService(repo repository.GoalRepository, publisher event.Publisher, pageSize int) *GoalService {
	return &GoalService{
		repo:      repo,
		publisher: publisher,
		pageSize:  pageSize,
	}
}

// FetchGoals returns one page of the caller's goals. With search text it
// consults the full-text index, which is owner-agnostic, so ownership is
// applied as a post-filter; without it the listing is scoped to the owner
// at the store. statusFilter holds external status codes; an empty set
// means no filtering. Inputs are pre-validated by the caller: page, if
// present, is >= 1 and every filter token is a known code.
func (s *GoalService) FetchGoals(search *string, page *int, statusFilter []string, userID string) ([]model.Goal, error) {
	offset := 0
	if page != nil {
		offset = (*page - 1) * s.pageSize
	}

	var goals []model.Goal
	var err error

	if search != nil {
		goals, err = s.repo.Search(*search)
		if err != nil {
			return nil, fmt.Errorf("search goals: %w", err)
		}
		goals = slices.DeleteFunc(goals, func(g model.Goal) bool {
			return !strings.EqualFold(g.UserID, userID)
		})
	} else {
		goals, err = s.repo.ByUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("list goals: %w", err)
		}
	}

	goals = filterByStatus(goals, statusFilter)

	return paginate(goals, offset, s.pageSize), nil
}

// TotalGoalCount is the owner's overall goal count, independent of any
// search or status filter.
func (s *GoalService) TotalGoalCount(userID string) (int64, error) {
	return s.repo.TotalCount(userID)
}

// AddGoal persists a new goal and publishes GOAL_ADDED keyed by the
// assigned id. The name lookup is only a fast path; the store's unique
// index on (user_id, name) is the authoritative conflict guard, so a
// concurrent duplicate create still fails cleanly.
func (s *GoalService) AddGoal(goal model.Goal) (*model.Goal, error) {
	_, err := s.repo.ByNameAndUserID(goal.Name, goal.UserID)
	if err == nil {
		return nil, ErrGoalConflict
	}
	if !errors.Is(err, repository.ErrGoalNotFound) {
		return nil, fmt.Errorf("check existing goal: %w", err)
	}

	if goal.Status == "" {
		goal.Status = model.StatusActive
	}

	err = s.repo.Save(&goal)
	if errors.Is(err, repository.ErrGoalExists) {
		return nil, ErrGoalConflict
	}
	if err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	s.publish(model.NewEvent(model.EventGoalAdded, goal.ID, goal))

	return &goal, nil
}

// UpdateGoal transitions the stored goal identified by (name, userID).
// Only status and notes are taken from the incoming goal; name,
// description, due date and level keep their stored values. Completing a
// goal stamps completedOn with today's date and forces votes to 3.
func (s *GoalService) UpdateGoal(goal model.Goal) (*model.Goal, error) {
	current, err := s.repo.ByNameAndUserID(goal.Name, goal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load goal: %w", err)
	}

	updated := model.Goal{
		ID:          current.ID,
		UserID:      current.UserID,
		Name:        current.Name,
		Description: current.Description,
		DueDate:     current.DueDate,
		Level:       current.Level,
		CreatedAt:   current.CreatedAt,
		Status:      goal.Status,
		Notes:       goal.Notes,
	}
	if goal.Status == model.StatusCompleted {
		today := model.Today()
		updated.CompletedOn = &today
		updated.Votes = 3
	}

	err = s.repo.Save(&updated)
	if err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	s.publish(model.NewEvent(eventTypeFor(updated.Status), updated.ID, updated))

	return &updated, nil
}

// eventTypeFor maps the post-transition status to its lifecycle event.
// Anything unrecognized falls back to GOAL_COMPLETED.
func eventTypeFor(status model.GoalStatus) model.EventType {
	switch status {
	case model.StatusActive:
		return model.EventGoalResumed
	case model.StatusDeferred:
		return model.EventGoalDeferred
	default:
		return model.EventGoalCompleted
	}
}

// publish hands the event off best-effort. A failure after a successful
// save is logged and does not fail the mutation.
func (s *GoalService) publish(e model.Event) {
	err := s.publisher.Publish(e)
	if err != nil {
		slog.Warn("failed to publish goal event", "event_type", e.Type, "key", e.Key, "error", err)
		return
	}
	slog.Info("goal event published", "event_type", e.Type, "key", e.Key)
}

func filterByStatus(goals []model.Goal, statusFilter []string) []model.Goal {
	if len(statusFilter) == 0 {
		return goals
	}
	return slices.DeleteFunc(goals, func(g model.Goal) bool {
		return !slices.ContainsFunc(statusFilter, func(code string) bool {
			return strings.EqualFold(code, string(g.Status))
		})
	})
}

func paginate(goals []model.Goal, offset, limit int) []model.Goal {
	if offset >= len(goals) {
		return []model.Goal{}
	}
	end := offset + limit
	if end > len(goals) {
		end = len(goals)
	}
	return goals[offset:end]
}
