package activity

import (
	"context"
	"database/sql"
	"time"
)

type Event struct {
	Offset      int64  `json:"offset"`
	Type        string `json:"eventType"`
	Message     string `json:"message"`
	RelatedUser string `json:"relatedUser,omitempty"`
	RelatedItem string `json:"relatedItem,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// Repo is an append-only audit trail of notable student actions.
type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Record(ctx context.Context, eventType, message, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (event_type, message, related_user, related_item, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		eventType, message, userID, itemID, time.Now().Unix())
	return err
}

// Recent returns the latest events, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", event_type, message, related_user, related_item, created_at
		 FROM activity_log ORDER BY "offset" DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Message, &e.RelatedUser, &e.RelatedItem, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
