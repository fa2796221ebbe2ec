package domain

import "time"

// File is a single entry in a room's file tree. Folders carry no content.
// Content is last-write-wins: concurrent edits are not merged, the most
// recently saved version becomes the stored state.
type File struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RoomID         string    `gorm:"index:idx_room_path;size:32;not null" json:"roomId"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Path           string    `gorm:"index:idx_room_path;size:512;not null" json:"path"`
	Content        string    `gorm:"type:longtext" json:"content"`
	Language       string    `gorm:"size:32;default:plaintext" json:"language"`
	MimeType       string    `gorm:"size:64;default:text/plain" json:"mimeType"`
	IsFolder       bool      `gorm:"default:false" json:"isFolder"`
	ParentID       *uint     `gorm:"index" json:"parentId"`
	Size           int       `gorm:"default:0" json:"size"`
	CreatedBy      uint      `gorm:"index;not null" json:"createdBy"`
	LastModifiedBy uint      `gorm:"index" json:"lastModifiedBy"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
