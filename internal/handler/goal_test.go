package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilm/hourglass-goal-service/internal/model"
	"github.com/nikhilm/hourglass-goal-service/internal/repository"
	"github.com/nikhilm/hourglass-goal-service/internal/service"
)

type stubGoalRepo struct {
	goals []model.Goal
	err   error
}

func (s *stubGoalRepo) ByUserID(userID string) ([]model.Goal, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Goal{}
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *stubGoalRepo) ByNameAndUserID(name, userID string) (*model.Goal, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, g := range s.goals {
		if g.Name == name && g.UserID == userID {
			goal := g
			return &goal, nil
		}
	}
	return nil, repository.ErrGoalNotFound
}

func (s *stubGoalRepo) Search(query string) ([]model.Goal, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Goal{}
	for _, g := range s.goals {
		if strings.Contains(g.Name, query) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *stubGoalRepo) TotalCount(userID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, g := range s.goals {
		if g.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *stubGoalRepo) Save(goal *model.Goal) error {
	if s.err != nil {
		return s.err
	}
	if goal.ID == "" {
		goal.ID = "new-goal"
	}
	s.goals = append(s.goals, *goal)
	return nil
}

type capturePublisher struct {
	events []model.Event
}

func (c *capturePublisher) Publish(e model.Event) error {
	c.events = append(c.events, e)
	return nil
}

func newTestHandler(repo repository.GoalRepository) *GoalHandler {
	h, _ := newTestHandlerWithPublisher(repo)
	return h
}

func newTestHandlerWithPublisher(repo repository.GoalRepository) (*GoalHandler, *capturePublisher) {
	pub := &capturePublisher{}
	return NewGoalHandler(service.NewGoalService(repo, pub, 5)), pub
}

func TestGoalsResponseShape(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{goals: []model.Goal{
		{ID: "g1", UserID: "abc", Name: "first goal", Status: model.StatusActive},
		{ID: "g2", UserID: "abc", Name: "second goal", Status: model.StatusDeferred},
	}})

	req := httptest.NewRequest(http.MethodGet, "/goals", nil)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.Goals(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp model.GoalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Goals, 2)
	assert.EqualValues(t, 2, resp.TotalGoals)
}

func TestGoalsStatusFilterLowercaseAccepted(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{goals: []model.Goal{
		{ID: "g1", UserID: "abc", Name: "first goal", Status: model.StatusActive},
		{ID: "g2", UserID: "abc", Name: "second goal", Status: model.StatusDeferred},
	}})

	req := httptest.NewRequest(http.MethodGet, "/goals?status=d", nil)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.Goals(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.GoalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Goals, 1)
	assert.Equal(t, "g2", resp.Goals[0].ID)
	// The total stays the owner's overall count.
	assert.EqualValues(t, 2, resp.TotalGoals)
}

func TestGoalsStatusFilterToleratesStrayCommas(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{goals: []model.Goal{
		{ID: "g1", UserID: "abc", Name: "first goal", Status: model.StatusActive},
		{ID: "g2", UserID: "abc", Name: "second goal", Status: model.StatusDeferred},
	}})

	req := httptest.NewRequest(http.MethodGet, "/goals?status=A,", nil)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.Goals(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.GoalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Goals, 1)
	assert.Equal(t, "g1", resp.Goals[0].ID)
}

func TestGoalsValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		user   string
	}{
		{"missing user header", "/goals", ""},
		{"zero page", "/goals?page=0", "abc"},
		{"negative page", "/goals?page=-2", "abc"},
		{"non-numeric page", "/goals?page=two", "abc"},
		{"unknown status token", "/goals?status=A,X", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&stubGoalRepo{})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.user != "" {
				req.Header.Set("user", tt.user)
			}
			rec := httptest.NewRecorder()

			h.Goals(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var apiErr apiError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, "400", apiErr.Code)
			assert.Equal(t, "Wrong input!", apiErr.Message)
		})
	}
}

func TestGoalsDownstreamFailure(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{err: errors.New("store down")})

	req := httptest.NewRequest(http.MethodGet, "/goals", nil)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.Goals(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "500", apiErr.Code)
	assert.Equal(t, "Internal server error!", apiErr.Message)
}

func TestAddGoalCreated(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{})

	body := strings.NewReader(`{"name":"g","level":"Easy"}`)
	req := httptest.NewRequest(http.MethodPost, "/goal", body)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.AddGoal(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/new-goal", rec.Header().Get("Location"))

	var saved model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "new-goal", saved.ID)
	// Owner comes from the header, never from the body.
	assert.Equal(t, "abc", saved.UserID)
	assert.Equal(t, model.StatusActive, saved.Status)
}

func TestAddGoalConflict(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{goals: []model.Goal{
		{ID: "g1", UserID: "abc", Name: "g", Status: model.StatusActive},
	}})

	req := httptest.NewRequest(http.MethodPost, "/goal", strings.NewReader(`{"name":"g"}`))
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.AddGoal(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "409", apiErr.Code)
	assert.Equal(t, "Conflict!", apiErr.Message)
}

func TestAddGoalNormalizesStatusCode(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{})

	body := strings.NewReader(`{"name":"g","status":"c"}`)
	req := httptest.NewRequest(http.MethodPost, "/goal", body)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.AddGoal(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var saved model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, model.StatusCompleted, saved.Status)
}

func TestAddGoalValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":""}`},
		{"blank name", `{"name":"   "}`},
		{"malformed json", `{"name":`},
		{"unknown status", `{"name":"g","status":"Q"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&stubGoalRepo{})

			req := httptest.NewRequest(http.MethodPost, "/goal", strings.NewReader(tt.body))
			req.Header.Set("user", "abc")
			rec := httptest.NewRecorder()

			h.AddGoal(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateGoalOK(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{goals: []model.Goal{
		{ID: "g1", UserID: "abc", Name: "g", Status: model.StatusActive},
	}})

	body := strings.NewReader(`{"name":"g","status":"C","notes":["done"]}`)
	req := httptest.NewRequest(http.MethodPut, "/goal", body)
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.UpdateGoal(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var saved model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "g1", saved.ID)
	assert.Equal(t, model.StatusCompleted, saved.Status)
	assert.Equal(t, 3, saved.Votes)
	require.NotNil(t, saved.CompletedOn)
}

func TestUpdateGoalRejectsBadStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown status", `{"name":"g","status":"Q"}`},
		{"missing status", `{"name":"g"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubGoalRepo{goals: []model.Goal{
				{ID: "g1", UserID: "abc", Name: "g", Status: model.StatusActive},
			}}
			h, pub := newTestHandlerWithPublisher(repo)

			req := httptest.NewRequest(http.MethodPut, "/goal", strings.NewReader(tt.body))
			req.Header.Set("user", "abc")
			rec := httptest.NewRecorder()

			h.UpdateGoal(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var apiErr apiError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, "Wrong input!", apiErr.Message)

			// Nothing reached the store or the event channel.
			assert.Equal(t, model.StatusActive, repo.goals[0].Status)
			assert.Empty(t, pub.events)
		})
	}
}

func TestUpdateGoalNotFound(t *testing.T) {
	h := newTestHandler(&stubGoalRepo{})

	req := httptest.NewRequest(http.MethodPut, "/goal", strings.NewReader(`{"name":"missing","status":"D"}`))
	req.Header.Set("user", "abc")
	rec := httptest.NewRecorder()

	h.UpdateGoal(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
