package repository

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nikhilm/hourglass-goal-service/internal/model"
)

// OutboxEntry is one parked lifecycle event awaiting delivery.
type OutboxEntry struct {
	ID          int64      `db:"id"`
	EventType   string     `db:"event_type"`
	EventKey    string     `db:"event_key"`
	Payload     []byte     `db:"payload"`
	Attempts    int        `db:"attempts"`
	CreatedAt   time.Time  `db:"created_at"`
	DeliveredAt *time.Time `db:"delivered_at"`
}

type OutboxRepository interface {
	Insert(event model.Event) error
	Pending(limit int) ([]OutboxEntry, error)
	MarkDelivered(id int64) error
	RecordAttempt(id int64) error
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Insert(event model.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	query := `INSERT INTO event_outbox (event_type, event_key, payload, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err = r.db.Exec(query, string(event.Type), event.Key, string(payload), event.CreatedAt)
	return err
}

func (r *outboxRepository) Pending(limit int) ([]OutboxEntry, error) {
	entries := []OutboxEntry{}
	query := `SELECT * FROM event_outbox WHERE delivered_at IS NULL ORDER BY id LIMIT $1`

	err := r.db.Select(&entries, query, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *outboxRepository) MarkDelivered(id int64) error {
	query := `UPDATE event_outbox SET delivered_at = $1 WHERE id = $2`
	_, err := r.db.Exec(query, time.Now(), id)
	return err
}

func (r *outboxRepository) RecordAttempt(id int64) error {
	query := `UPDATE event_outbox SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}
