package domain

import "time"

// User is a registered account. Password holds the bcrypt hash and is cleared
// before a User leaves the service layer.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(191);uniqueIndex" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
