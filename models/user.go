package models

import (
	"context"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:50;default:user" json:"role"`
	ContactId *int      `gorm:"index;default:null" json:"contact_id"`
	Contact   *Contact  `json:"contact,omitempty"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	ContactId *int   `json:"contact_id"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func RegisterUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	if !utils.IsValidEmail(input.Email) {
		return nil, utils.NewValidationError("invalid email")
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, 0); err != nil {
		return nil, err
	}
	if input.ContactId != nil {
		if err := utils.ValidateResourceId[Contact](ctx, *input.ContactId); err != nil {
			return nil, utils.NewValidationError("contact not found")
		}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashed),
		ContactId: input.ContactId,
		IsActive:  utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LoginUser verifies the credentials and mints a JWT.
func LoginUser(ctx context.Context, input *LoginInput) (string, *User, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error
	if err != nil {
		return "", nil, utils.NewValidationError("invalid username or password")
	}
	if user.IsActive != nil && !*user.IsActive {
		return "", nil, utils.NewPermissionDeniedError("user is inactive")
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return "", nil, utils.NewValidationError("invalid username or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id, "Contact")
}
