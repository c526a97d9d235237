package models

import "time"

// User is the stored account. Exactly one of PasswordHash or IsGoogleUser
// makes the account usable for login.
type User struct {
	ID           string
	FullName     string
	UserName     string
	Email        string
	PasswordHash *string
	ProfilePic   string
	IsGoogleUser bool
	GoogleID     *string
	About        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// CanAuthenticate reports whether the account has at least one way to log in.
func (u *User) CanAuthenticate() bool {
	return u.HasPassword() || u.IsGoogleUser
}

// PublicProfile returns the fields that may leave the service.
func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		FullName:   u.FullName,
		UserName:   u.UserName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		About:      u.About,
	}
}

// PublicProfile is the user as seen by clients and embedded in tokens. It
// never carries the password hash.
type PublicProfile struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic"`
	About      string `json:"about,omitempty"`
}
