package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         Role      `gorm:"not null;default:GUEST"    json:"role"`
	Name         string    `gorm:"not null"                  json:"name"`
	Surname      string    `gorm:"not null"                  json:"surname"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	UserID    uint      `gorm:"index;not null"         json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null"         json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type Museum struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	MuseumID    uint      `gorm:"index;not null"            json:"museumId"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Item struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	CategoryID  uint      `gorm:"index;not null"            json:"categoryId"`
	Title       string    `gorm:"not null"                  json:"title"`
	Description string    `gorm:"not null"                  json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserCategory grants a curator edit access to one category.
type UserCategory struct {
	UserID     uint      `gorm:"primaryKey"  json:"userId"`
	CategoryID uint      `gorm:"primaryKey"  json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&User{}, &RefreshToken{}, &Museum{}, &Category{}, &Item{}, &UserCategory{}}
}
