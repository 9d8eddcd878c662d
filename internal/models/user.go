package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID          string    `bun:"id,pk" json:"id"`
	Email       string    `bun:"email,notnull" json:"email"`
	DisplayName string    `bun:"display_name,notnull" json:"display_name"`
	AvatarURL   string    `bun:"avatar_url" json:"avatar_url,omitempty"`
	University  string    `bun:"university" json:"university,omitempty"`
	Bio         string    `bun:"bio" json:"bio,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// PublicProfile is what other users may see.
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	University  string `json:"university,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		University:  u.University,
	}
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=80"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,http_url,max=500"`
	University  string `json:"university" validate:"max=120"`
	Bio         string `json:"bio" validate:"max=500"`
}
