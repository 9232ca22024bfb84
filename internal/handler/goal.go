package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/nikhilm/hourglass-goal-service/internal/model"
	"github.com/nikhilm/hourglass-goal-service/internal/service"
)

// GoalHandler is the REST surface over the goal service. Semantic input
// validation (page >= 1, known status tokens, non-empty name) happens
// here; the service assumes validated input. Service calls run through a
// circuit breaker so a struggling store fails fast instead of piling up.
type GoalHandler struct {
	goalService *service.GoalService
	breaker     *gobreaker.CircuitBreaker[any]
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name: "goal",
		// Conflict and not-found are business outcomes, not downstream
		// failures; they must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, service.ErrGoalConflict) ||
				errors.Is(err, service.ErrGoalNotFound)
		},
	})

	return &GoalHandler{
		goalService: goalService,
		breaker:     breaker,
	}
}

// Goals handles GET /goals?search=&page=&status= with the owner in the
// "user" header. The page fetch and the owner's total count run
// concurrently and both must succeed.
func (h *GoalHandler) Goals(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Wrong input!")
		return
	}

	var search *string
	if v := r.URL.Query().Get("search"); v != "" {
		search = &v
	}

	var page *int
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Wrong input!")
			return
		}
		page = &n
	}

	statusFilter, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Wrong input!")
		return
	}

	var goals []model.Goal
	var total int64

	g := new(errgroup.Group)
	g.Go(func() error {
		v, err := h.breaker.Execute(func() (any, error) {
			return h.goalService.FetchGoals(search, page, statusFilter, userID)
		})
		if err != nil {
			return err
		}
		goals = v.([]model.Goal)
		return nil
	})
	g.Go(func() error {
		v, err := h.breaker.Execute(func() (any, error) {
			return h.goalService.TotalGoalCount(userID)
		})
		if err != nil {
			return err
		}
		total = v.(int64)
		return nil
	})

	err = g.Wait()
	if err != nil {
		slog.Error("failed to fetch goals", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Internal server error!")
		return
	}

	writeJSON(w, http.StatusOK, model.GoalResponse{Goals: goals, TotalGoals: total})
}

// AddGoal handles POST /goal.
func (h *GoalHandler) AddGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := h.decodeGoal(w, r)
	if !ok {
		return
	}

	v, err := h.breaker.Execute(func() (any, error) {
		return h.goalService.AddGoal(*goal)
	})
	if errors.Is(err, service.ErrGoalConflict) {
		writeError(w, http.StatusConflict, "Conflict!")
		return
	}
	if err != nil {
		slog.Error("failed to add goal", "error", err, "user_id", goal.UserID, "name", goal.Name)
		writeError(w, http.StatusInternalServerError, "Internal server error!")
		return
	}

	saved := v.(*model.Goal)
	w.Header().Set("Location", "/"+saved.ID)
	writeJSON(w, http.StatusCreated, saved)
}

// UpdateGoal handles PUT /goal. An update is a status transition, so the
// body must name the target status explicitly.
func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := h.decodeGoal(w, r)
	if !ok {
		return
	}

	if goal.Status == "" {
		writeError(w, http.StatusBadRequest, "Wrong input!")
		return
	}

	v, err := h.breaker.Execute(func() (any, error) {
		return h.goalService.UpdateGoal(*goal)
	})
	if errors.Is(err, service.ErrGoalNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to update goal", "error", err, "user_id", goal.UserID, "name", goal.Name)
		writeError(w, http.StatusInternalServerError, "Internal server error!")
		return
	}

	writeJSON(w, http.StatusOK, v.(*model.Goal))
}

// decodeGoal reads the request body, validates the name and any supplied
// status code, and injects the owner from the pre-resolved "user" header.
// A present status is normalized to its canonical uppercase code so an
// unknown token can never reach the store.
func (h *GoalHandler) decodeGoal(w http.ResponseWriter, r *http.Request) (*model.Goal, bool) {
	userID := r.Header.Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Wrong input!")
		return nil, false
	}

	var goal model.Goal
	err := json.NewDecoder(r.Body).Decode(&goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Wrong input!")
		return nil, false
	}

	if strings.TrimSpace(goal.Name) == "" {
		writeError(w, http.StatusBadRequest, "Wrong input!")
		return nil, false
	}

	if goal.Status != "" {
		parsed, err := model.ParseGoalStatus(string(goal.Status))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Wrong input!")
			return nil, false
		}
		goal.Status = parsed
	}

	goal.UserID = userID
	return &goal, true
}

// parseStatusFilter splits a comma-separated status parameter into
// uppercased external codes, rejecting unknown tokens. Empty tokens from
// stray commas are dropped, not rejected.
func parseStatusFilter(status string) ([]string, error) {
	if status == "" {
		return nil, nil
	}

	tokens := strings.Split(status, ",")
	filter := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		parsed, err := model.ParseGoalStatus(token)
		if err != nil {
			return nil, err
		}
		filter = append(filter, string(parsed))
	}

	return filter, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Code: strconv.Itoa(status), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
