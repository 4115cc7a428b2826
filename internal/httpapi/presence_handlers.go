package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ptdat/roomledger/internal/middleware"
	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/service"
)

func (s *Server) getPresence(c *gin.Context) {
	records, err := s.presence.GetMonth(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"), c.Param("month"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

type setDayRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) setPresenceDay(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		writeError(c, service.ErrInvalidDay)
		return
	}

	var req setDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := models.ParseDayStatus(req.Status)
	if err != nil {
		writeError(c, service.ErrInvalidStatus)
		return
	}

	rec, err := s.presence.SetDay(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"), c.Param("month"), day, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) togglePresenceDay(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		writeError(c, service.ErrInvalidDay)
		return
	}

	rec, err := s.presence.ToggleDay(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"), c.Param("month"), day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
