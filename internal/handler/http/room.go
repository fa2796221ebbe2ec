package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sairamarava/CodeTogether/internal/service"
)

// currentUserID reads the user id the auth middleware stored on the context.
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// RoomHandler exposes durable room management plus room-scoped chat history
// and the live presence snapshot.
type RoomHandler struct {
	rooms    *service.RoomService
	presence *service.PresenceManager
	chat     *service.ChatService
}

func NewRoomHandler(rooms *service.RoomService, presence *service.PresenceManager, chat *service.ChatService) *RoomHandler {
	if rooms == nil || presence == nil || chat == nil {
		panic("all services must be non-nil for RoomHandler")
	}
	return &RoomHandler{rooms: rooms, presence: presence, chat: chat}
}

type createRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MaxMembers  int    `json:"maxMembers"`
	IsPublic    *bool  `json:"isPublic"`
}

// Create handles POST /api/rooms.
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrValidation)
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	room, err := h.rooms.CreateRoom(c.Request.Context(), currentUserID(c), req.Name, req.Description, req.MaxMembers, isPublic)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"room": room})
}

// ListPublic handles GET /api/rooms.
func (h *RoomHandler) ListPublic(c *gin.Context) {
	rooms, err := h.rooms.ListPublicRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"rooms": rooms})
}

// Get handles GET /api/rooms/:roomId.
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"room": room})
}

// Join handles POST /api/rooms/:roomId/join, recording a durable editor
// membership. The live join still happens over the socket.
func (h *RoomHandler) Join(c *gin.Context) {
	room, err := h.rooms.JoinRoom(c.Request.Context(), c.Param("roomId"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"room": room})
}

// ActiveUsers handles GET /api/rooms/:roomId/active, the live presence
// snapshot.
func (h *RoomHandler) ActiveUsers(c *gin.Context) {
	roomID := c.Param("roomId")
	if _, err := h.rooms.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}
	users, err := h.presence.ActiveUsers(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, service.ErrInternalServer)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"activeUsers": users})
}

// Messages handles GET /api/rooms/:roomId/messages?limit=50, oldest first.
func (h *RoomHandler) Messages(c *gin.Context) {
	roomID := c.Param("roomId")
	if _, err := h.rooms.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	msgs, err := h.chat.History(c.Request.Context(), roomID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"messages": msgs})
}
