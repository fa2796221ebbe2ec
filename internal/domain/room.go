package domain

import "time"

// Membership roles, ordered by privilege.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
)

// DefaultMaxMembers is applied when a room is created without an explicit cap.
const DefaultMaxMembers = 10

// MaxMembersLimit is the hard upper bound for a room's capacity.
const MaxMembersLimit = 50

// Room is a named collaboration session. Membership and settings are durable;
// the set of currently-connected participants lives in the presence store and
// is rebuilt from live connections.
type Room struct {
	ID          uint         `gorm:"primaryKey" json:"-"`
	RoomID      string       `gorm:"uniqueIndex;size:32;not null" json:"roomId"` // opaque public identifier
	Name        string       `gorm:"size:100;not null" json:"name"`
	Description string       `gorm:"size:500" json:"description"`
	OwnerID     uint         `gorm:"index;not null" json:"ownerId"`
	IsPublic    bool         `gorm:"default:false" json:"isPublic"`
	MaxMembers  int          `gorm:"default:10" json:"maxMembers"`
	Settings    RoomSettings `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	Stats       RoomStats    `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime;index" json:"updatedAt"`
}

// RoomSettings toggles the collaboration features of a room.
type RoomSettings struct {
	AllowFileUpload    bool `json:"allowFileUpload" gorm:"default:true"`
	AllowCodeExecution bool `json:"allowCodeExecution" gorm:"default:true"`
	AllowChat          bool `json:"allowChat" gorm:"default:true"`
	AllowDrawing       bool `json:"allowDrawing" gorm:"default:true"`
}

// RoomStats are best-effort usage counters, incremented in the background.
type RoomStats struct {
	TotalConnections uint `json:"totalConnections" gorm:"default:0"`
	TotalMessages    uint `json:"totalMessages" gorm:"default:0"`
	TotalFileChanges uint `json:"totalFileChanges" gorm:"default:0"`
}

// RoomMember is a durable membership record tying a user to a room with a role.
type RoomMember struct {
	ID       uint      `gorm:"primaryKey"`
	RoomID   uint      `gorm:"index:idx_room_user,unique;not null"` // Room.ID, not the public RoomID
	UserID   uint      `gorm:"index:idx_room_user,unique;not null"`
	Role     string    `gorm:"size:20;not null;default:editor"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// RoleAtLeast reports whether role carries at least the privilege of required.
func RoleAtLeast(role, required string) bool {
	rank := map[string]int{RoleViewer: 1, RoleEditor: 2, RoleAdmin: 3, RoleOwner: 4}
	return rank[role] >= rank[required]
}
