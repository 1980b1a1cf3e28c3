package models

import (
	"slices"
	"time"
)

const (
	RoleAdministrator = "administrator"
	RoleSubscriber    = "subscriber"

	// CapManageOptions guards the settings page and its update endpoint.
	CapManageOptions = "manage_options"
)

// User is a site account. Its id is the visitor id signed into the widget.
type User struct {
	ID           int64     `bson:"_id" json:"id,string"`
	Email        string    `bson:"email" json:"email"`
	DisplayName  string    `bson:"display_name" json:"display_name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	Capabilities []string  `bson:"capabilities,omitempty" json:"capabilities,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// RoleCapabilities are granted on top of a user's explicit capabilities.
var RoleCapabilities = map[string][]string{
	RoleAdministrator: {CapManageOptions},
	RoleSubscriber:    {},
}

// EffectiveCapabilities merges role defaults with explicit grants.
func (u User) EffectiveCapabilities() []string {
	caps := append([]string(nil), RoleCapabilities[u.Role]...)
	for _, c := range u.Capabilities {
		if !slices.Contains(caps, c) {
			caps = append(caps, c)
		}
	}
	return caps
}

func (u User) Visitor() VisitorIdentity {
	id := u.ID
	return VisitorIdentity{ID: &id, Email: u.Email, DisplayName: u.DisplayName}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPairResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	AccessExp    time.Time `json:"access_exp"`
	RefreshExp   time.Time `json:"refresh_exp"`
	User         UserInfo  `json:"user"`
}

type UserInfo struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	DisplayName  string   `json:"display_name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}
