package repositories

import (
	"database/sql"

	intconfig "vivahahub/internal/config"
	"vivahahub/internal/domain/models"
)

type NotificationRepository struct {
	DB *sql.DB
}

func (r NotificationRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r NotificationRepository) Insert(n models.Notification) error {
	_, err := r.db().Exec(`
		INSERT INTO notifications (user_id, type, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, NOW())`,
		n.UserID, n.Type, n.Title, n.Message,
	)
	return err
}

func (r NotificationRepository) ListByUser(userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db().Query(`
		SELECT id, user_id, type, title, message, is_read, created_at
		FROM notifications
		WHERE user_id=?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r NotificationRepository) CountUnread(userID int64) (int, error) {
	var n int
	err := r.db().QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0`, userID).Scan(&n)
	return n, err
}

// MarkRead only touches the requester's own rows.
func (r NotificationRepository) MarkRead(id, userID int64) (bool, error) {
	res, err := r.db().Exec(`UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
