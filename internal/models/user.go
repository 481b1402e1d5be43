package models

import "time"

// Role values assignable to a user profile.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User is an authenticated account. Every persisted user owns exactly one Profile.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Profile      Profile   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"profile"`
}

// Profile carries role and presentation data for a user.
type Profile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Role       string    `gorm:"size:10;not null;default:student" json:"role"`
	Bio        string    `gorm:"type:text" json:"bio"`
	PictureURL string    `gorm:"size:512" json:"picture_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsTeacher reports whether the user's profile carries the teacher role.
func (u User) IsTeacher() bool {
	return u.Profile.Role == RoleTeacher
}

// IsStudent reports whether the user's profile carries the student role.
func (u User) IsStudent() bool {
	return u.Profile.Role == RoleStudent
}
