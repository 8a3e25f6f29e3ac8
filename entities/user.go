package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a household account. PasswordHash is never serialized.
type User struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"not null" json:"full_name"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Profile is the public view returned after sign-in.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Phone:    u.Phone,
		Address:  u.Address,
	}
}

// ProfilePatch lists the optional profile fields a caller may change.
// Nil means "leave as is".
type ProfilePatch struct {
	FullName        *string `json:"full_name"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

// ProfileUpdate is the validated column set applied in a single UPDATE.
type ProfileUpdate struct {
	FullName     *string
	Phone        *string
	Address      *string
	PasswordHash *string
}

func (p ProfileUpdate) Empty() bool {
	return p.FullName == nil && p.Phone == nil && p.Address == nil && p.PasswordHash == nil
}

// Columns maps the update onto column names.
func (p ProfileUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 4)
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.PasswordHash != nil {
		cols["password_hash"] = *p.PasswordHash
	}
	return cols
}
