package dto

import (
	"time"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// ProfileResponse serializes a user profile.
type ProfileResponse struct {
	Role       string    `json:"role"`
	Bio        string    `json:"bio"`
	PictureURL string    `json:"picture_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserResponse serializes a user with its nested profile.
type UserResponse struct {
	ID        uint            `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Profile   ProfileResponse `json:"profile"`
}

// UserBriefResponse summarizes a user for roster listings.
type UserBriefResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileUpdateRequest updates presentation fields on the caller's profile. The role
// is immutable through the API once set at registration.
type ProfileUpdateRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=150"`
	LastName   *string `json:"last_name" validate:"omitempty,max=150"`
	Bio        *string `json:"bio" validate:"omitempty,max=2000"`
	PictureURL *string `json:"picture_url" validate:"omitempty,url,max=512"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Username:  model.Username,
		Email:     model.Email,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Profile: ProfileResponse{
			Role:       model.Profile.Role,
			Bio:        model.Profile.Bio,
			PictureURL: model.Profile.PictureURL,
			CreatedAt:  model.Profile.CreatedAt,
			UpdatedAt:  model.Profile.UpdatedAt,
		},
	}
}

// NewUserBriefResponseSlice converts user models into roster DTOs.
func NewUserBriefResponseSlice(users []models.User) []UserBriefResponse {
	responses := make([]UserBriefResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, UserBriefResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}

	return responses
}
