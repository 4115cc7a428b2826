package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ptdat/roomledger/internal/middleware"
	"github.com/ptdat/roomledger/internal/models"
)

type createRoomRequest struct {
	Name       string `json:"name" binding:"required"`
	MaxMembers int    `json:"max_members"`
}

func (s *Server) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := s.rooms.CreateRoom(c.Request.Context(), middleware.GetUserID(c), req.Name, req.MaxMembers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (s *Server) getRoom(c *gin.Context) {
	room, err := s.rooms.GetRoom(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) deleteRoom(c *gin.Context) {
	if err := s.rooms.DeleteRoom(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) joinRoom(c *gin.Context) {
	if err := s.rooms.Join(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) leaveRoom(c *gin.Context) {
	if err := s.rooms.Leave(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) kickMember(c *gin.Context) {
	err := s.rooms.Kick(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"), c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

func (s *Server) changeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.rooms.ChangeRole(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"), c.Param("user_id"), req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// subscribe upgrades the connection to a room-scoped websocket. Membership is
// checked before the upgrade so outsiders never hold a session.
func (s *Server) subscribe(c *gin.Context) {
	roomID := c.Param("room_id")
	if _, err := s.rooms.GetRoom(c.Request.Context(), middleware.GetUserID(c), roomID); err != nil {
		writeError(c, err)
		return
	}

	if err := s.hub.Subscribe(c.Writer, c.Request, roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
	}
}
