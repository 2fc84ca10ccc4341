// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user account in the Campfire application.
// Follower/following counts are never persisted; they are derived from the
// follows table at query time so the stored follow edges stay the single
// source of truth.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:32;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Bio      string `gorm:"type:text" json:"bio"`
	// Avatar is a media URL; empty means the client renders its default picture.
	Avatar    string         `json:"avatar"`
	IsAdmin   bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// FollowersCount and FollowingCount are computed at query time.
	FollowersCount int `gorm:"->;-:migration" json:"followers_count"`
	FollowingCount int `gorm:"->;-:migration" json:"following_count"`
	// Following indicates whether the requesting user follows this user (computed).
	Following bool `gorm:"->;-:migration" json:"following"`

	Posts []Post `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}
