package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string      `json:"name" gorm:"not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string      `json:"-" gorm:"not null"`
	Avatar       string      `json:"avatar,omitempty"`
	Role         string      `json:"role" gorm:"not null;default:user"`
	Courses      []CourseRef `json:"courses" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// CourseRef records a purchased course on a user. Course content itself
// lives in the catalog service; only the reference is kept here.
type CourseRef struct {
	ID       uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID   uuid.UUID `json:"-" gorm:"type:uuid;index;not null"`
	CourseID string    `json:"courseId" gorm:"not null"`
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) ComparePassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
