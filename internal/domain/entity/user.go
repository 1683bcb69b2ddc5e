package entity

import "time"

// Role is the user's platform role. ADMIN accounts are provisioned out of
// band (seed tool); self-registration is limited to the other three.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleParent  Role = "PARENT"
	RoleAdmin   Role = "ADMIN"
)

// User is the aggregate root for the identity domain.
// Password holds the bcrypt hash, never the plaintext.
type User struct {
	ID              string
	Email           string
	Phone           string
	Password        string
	FirstName       string
	LastName        string
	Role            Role
	AvatarURL       string
	IsActive        bool
	IsEmailVerified bool
	ReferralCode    string
	TwoFactorSecret string
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicUser is the externally visible shape of a user. It never carries the
// password hash or two-factor secret.
type PublicUser struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Role            Role       `json:"role"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	IsActive        bool       `json:"isActive"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	ReferralCode    string     `json:"referralCode"`
	LastLoginAt     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Sanitized strips credential material for safe external exposure.
func (u *User) Sanitized() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Phone:           u.Phone,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		AvatarURL:       u.AvatarURL,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		ReferralCode:    u.ReferralCode,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
