package transport

import "github.com/Skotchmaster/museum/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Surname  string `json:"surname"  validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=32"`
}

type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int64       `json:"expiresIn"`
	Name        string      `json:"name"`
	Surname     string      `json:"surname"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type MuseumRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type CategoryRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type ItemRequest struct {
	Title         string `json:"title"         validate:"required,max=200"`
	Description   string `json:"description"   validate:"max=5000"`
	NewCategoryID *uint  `json:"newCategoryId" validate:"omitempty,gt=0"`
}

type AddUserRequest struct {
	UserID uint `json:"userId" validate:"required,gt=0"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=GUEST CURATOR ADMIN"`
}

type ItemResponse struct {
	models.Item
	CanEdit bool `json:"canEdit"`
}
