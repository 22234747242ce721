package api

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusResponse describes the receiver connection
type StatusResponse struct {
	Success       bool      `json:"success"`
	State         string    `json:"state"`
	Received      int64     `json:"received"`
	Duplicates    int64     `json:"duplicates"`
	Reconnects    int64     `json:"reconnects"`
	PersistentIDs int64     `json:"persistentIds"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// NotificationInfo is a received notification as served by the API.
// Text is set when the payload is valid UTF-8.
type NotificationInfo struct {
	ID           int64     `json:"id"`
	PersistentID string    `json:"persistentId"`
	Payload      []byte    `json:"payload"`
	Text         string    `json:"text,omitempty"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// NotificationsResponse lists recent notifications
type NotificationsResponse struct {
	Success       bool               `json:"success"`
	Count         int                `json:"count"`
	Notifications []NotificationInfo `json:"notifications"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	stats := s.status.Stats()
	c.JSON(http.StatusOK, StatusResponse{
		Success:       true,
		State:         stats.State.String(),
		Received:      stats.Received,
		Duplicates:    stats.Duplicates,
		Reconnects:    stats.Reconnects,
		PersistentIDs: stats.PersistentIDs,
		CheckedAt:     time.Now(),
	})
}

// handleNotifications handles GET /api/v1/notifications?limit=N
func (s *Server) handleNotifications(c *gin.Context) {
	limit := s.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid limit",
				Message: "limit must be a positive number",
			})
			return
		}
		limit = min(n, s.historyLimit)
	}

	recent, err := s.inbox.Recent(limit)
	if err != nil {
		s.logger.Error("failed to read notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to read notifications",
			Message: err.Error(),
		})
		return
	}

	infos := make([]NotificationInfo, 0, len(recent))
	for _, n := range recent {
		info := NotificationInfo{
			ID:           n.ID,
			PersistentID: n.PersistentID,
			Payload:      n.Payload,
			ReceivedAt:   n.ReceivedAt,
		}
		if utf8.Valid(n.Payload) {
			info.Text = string(n.Payload)
		}
		infos = append(infos, info)
	}

	c.JSON(http.StatusOK, NotificationsResponse{
		Success:       true,
		Count:         len(infos),
		Notifications: infos,
	})
}
