package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// Actor is an operator of the till. Authentication owns creation; the core only reads ID and Role.
type Actor struct {
	BaseModel
	Username string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" validate:"required"`
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	FullName string `gorm:"type:varchar(255)" json:"full_name"`
	Role     Role   `gorm:"type:varchar(20);not null" json:"role" validate:"required,oneof=admin manager cashier"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

// SetPassword hashes and sets the actor's password
func (a *Actor) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (a *Actor) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
}

// ActorResponse is the public view of an actor.
type ActorResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Role     Role      `json:"role"`
	IsActive bool      `json:"is_active"`
}

func (a *Actor) ToResponse() ActorResponse {
	return ActorResponse{
		ID:       a.ID,
		Username: a.Username,
		FullName: a.FullName,
		Role:     a.Role,
		IsActive: a.IsActive,
	}
}
