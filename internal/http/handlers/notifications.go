package handlers

import (
	"net/http"
	"strconv"

	"vivahahub/internal/http/middleware"
	"vivahahub/internal/repositories"

	"github.com/gin-gonic/gin"
)

// GET /api/notifications
func ListNotifications(c *gin.Context) {
	actor := middleware.GetActor(c)
	repo := repositories.NotificationRepository{}

	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := repo.ListByUser(int64(actor.UserID), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to load notifications", err)
		return
	}
	unread, err := repo.CountUnread(int64(actor.UserID))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to count unread", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread": unread})
}

// PUT /api/notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	actor := middleware.GetActor(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid notification id", err)
		return
	}

	ok, err := repositories.NotificationRepository{}.MarkRead(id, int64(actor.UserID))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to update notification", err)
		return
	}
	if !ok {
		RespondError(c, http.StatusNotFound, "notification not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}
