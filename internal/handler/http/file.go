package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sairamarava/CodeTogether/internal/service"
)

// FileHandler exposes the durable file tree of a room. Live clients hear
// about mutations through the socket relays; these endpoints own the data.
type FileHandler struct {
	files *service.FileService
	rooms *service.RoomService
}

func NewFileHandler(files *service.FileService, rooms *service.RoomService) *FileHandler {
	if files == nil || rooms == nil {
		panic("all services must be non-nil for FileHandler")
	}
	return &FileHandler{files: files, rooms: rooms}
}

func (h *FileHandler) fileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("fileId"), 10, 32)
	if err != nil {
		respondError(c, service.ErrValidation)
		return 0, false
	}
	return uint(id), true
}

type createFileRequest struct {
	Name       string `json:"name" binding:"required"`
	ParentID   *uint  `json:"parentId"`
	ParentPath string `json:"parentPath"`
	IsFolder   bool   `json:"isFolder"`
}

// Create handles POST /api/rooms/:roomId/files.
func (h *FileHandler) Create(c *gin.Context) {
	roomID := c.Param("roomId")
	if _, err := h.rooms.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrValidation)
		return
	}
	file, err := h.files.CreateFile(c.Request.Context(), roomID, req.Name, req.ParentID, req.ParentPath, req.IsFolder, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"file": file})
}

// List handles GET /api/rooms/:roomId/files.
func (h *FileHandler) List(c *gin.Context) {
	roomID := c.Param("roomId")
	if _, err := h.rooms.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}
	files, err := h.files.ListTree(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"files": files})
}

// Get handles GET /api/rooms/:roomId/files/:fileId.
func (h *FileHandler) Get(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}
	file, err := h.files.GetFile(c.Request.Context(), c.Param("roomId"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"file": file})
}

type saveContentRequest struct {
	Content string `json:"content"`
}

// SaveContent handles PUT /api/rooms/:roomId/files/:fileId/content.
// Last write wins, same as the debounced socket saves.
func (h *FileHandler) SaveContent(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}
	if _, err := h.files.GetFile(c.Request.Context(), c.Param("roomId"), id); err != nil {
		respondError(c, err)
		return
	}
	var req saveContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrValidation)
		return
	}
	if err := h.files.SaveContent(c.Request.Context(), id, req.Content, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, nil)
}

type renameFileRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename handles PUT /api/rooms/:roomId/files/:fileId.
func (h *FileHandler) Rename(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}
	var req renameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrValidation)
		return
	}
	file, err := h.files.RenameFile(c.Request.Context(), c.Param("roomId"), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"file": file})
}

// Delete handles DELETE /api/rooms/:roomId/files/:fileId.
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}
	if err := h.files.DeleteFile(c.Request.Context(), c.Param("roomId"), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, nil)
}
