package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/nikhilm/hourglass-goal-service/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrGoalExists   = errors.New("goal already exists")
)

// GoalRepository is the store contract for goals. Search is
// owner-agnostic; callers scope its results themselves.
type GoalRepository interface {
	ByUserID(userID string) ([]model.Goal, error)
	ByNameAndUserID(name, userID string) (*model.Goal, error)
	Search(query string) ([]model.Goal, error)
	TotalCount(userID string) (int64, error)
	Save(goal *model.Goal) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// Listing and search share one natural ordering so pagination is stable
// across both paths.
const goalOrder = "ORDER BY created_at, id"

func (r *goalRepository) ByUserID(userID string) ([]model.Goal, error) {
	goals := []model.Goal{}
	query := `SELECT * FROM goals WHERE user_id = $1 ` + goalOrder

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) ByNameAndUserID(name, userID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE name = $1 AND user_id = $2`

	err := r.db.Get(goal, query, name, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}

	return goal, err
}

func (r *goalRepository) Search(query string) ([]model.Goal, error) {
	goals := []model.Goal{}
	stmt := `SELECT g.* FROM goals g
	         JOIN goals_fts f ON g.rowid = f.rowid
	         WHERE goals_fts MATCH $1
	         ORDER BY g.created_at, g.id`

	err := r.db.Select(&goals, stmt, ftsQuery(query))
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// ftsQuery turns free text into an FTS5 match expression: each term is
// quoted (so punctuation cannot break the query syntax) and any term may
// match.
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func (r *goalRepository) TotalCount(userID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM goals WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&count)
	return count, err
}

// Save assigns an id on first save and otherwise overwrites the record
// with the matching id. A (user_id, name) collision surfaces as
// ErrGoalExists via the unique index.
func (r *goalRepository) Save(goal *model.Goal) error {
	now := time.Now()
	if goal.ID == "" {
		goal.ID = uuid.New().String()
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now

	query := `INSERT INTO goals (id, user_id, name, description, notes, level, status, due_date, completed_on, votes, created_at, updated_at)
	          VALUES (:id, :user_id, :name, :description, :notes, :level, :status, :due_date, :completed_on, :votes, :created_at, :updated_at)
	          ON CONFLICT (id) DO UPDATE SET
	              user_id = excluded.user_id,
	              name = excluded.name,
	              description = excluded.description,
	              notes = excluded.notes,
	              level = excluded.level,
	              status = excluded.status,
	              due_date = excluded.due_date,
	              completed_on = excluded.completed_on,
	              votes = excluded.votes,
	              updated_at = excluded.updated_at`

	_, err := r.db.NamedExec(query, goal)
	if isUniqueViolation(err) {
		return ErrGoalExists
	}

	return err
}

// isUniqueViolation recognizes a duplicate-key failure from the sqlite
// driver, with a message fallback for other drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
