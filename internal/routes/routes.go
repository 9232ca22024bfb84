package routes

import (
	"net/http"

	"github.com/nikhilm/hourglass-goal-service/internal/app"
	"github.com/nikhilm/hourglass-goal-service/internal/handler"
	"github.com/nikhilm/hourglass-goal-service/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Health)

	mux.HandleFunc("GET /goals", goal.Goals)

	// Mutations (rate limited)
	writeLimiter := middleware.RateLimitWrites()
	mux.HandleFunc("POST /goal", writeLimiter(goal.AddGoal))
	mux.HandleFunc("PUT /goal", writeLimiter(goal.UpdateGoal))

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestLogging,
	)
}
