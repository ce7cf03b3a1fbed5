package repositories

import (
	"database/sql"

	intconfig "vivahahub/internal/config"
)

// WebhookEventRepository backs webhook idempotency: event ids are stored under
// a unique key, and a delivery is only processed when its insert lands.
type WebhookEventRepository struct {
	DB *sql.DB
}

func (r WebhookEventRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// InsertIfNew returns true when this event id was not seen before. INSERT
// IGNORE against the unique key makes the check and the claim one statement.
func (r WebhookEventRepository) InsertIfNew(eventID, eventType, payload string) (bool, error) {
	res, err := r.db().Exec(`
		INSERT IGNORE INTO webhook_events (event_id, event_type, payload, received_at)
		VALUES (?, ?, ?, NOW())`,
		eventID, eventType, payload,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
