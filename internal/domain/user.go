package domain

import "time"

// User is a registered account. Username is the user's email address.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	PhoneNumber  string    `db:"phone_number"`
	Country      string    `db:"country"`
	CreatedAt    time.Time `db:"created_at"`
}

// Profile is the public view of a User.
type Profile struct {
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	Country     string    `json:"country"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile strips credentials from the user.
func (u *User) Profile() Profile {
	return Profile{
		Username:    u.Username,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Country:     u.Country,
		CreatedAt:   u.CreatedAt,
	}
}

// ProfileUpdate carries optional profile changes; nil fields are left as they are.
type ProfileUpdate struct {
	FullName    *string
	PhoneNumber *string
	Country     *string
}
