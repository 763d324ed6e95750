package models_test

import (
	"testing"

	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := setupIntegration(t)

	user, err := models.RegisterUser(ctx, &models.NewUser{
		Username: "office1",
		Email:    "office1@smallops.local",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Password == "hunter2hunter2" {
		t.Fatalf("password must be stored hashed")
	}

	// Duplicate usernames and emails are rejected.
	if _, err := models.RegisterUser(ctx, &models.NewUser{
		Username: "office1",
		Email:    "other@smallops.local",
		Password: "hunter2hunter2",
	}); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}
	if _, err := models.RegisterUser(ctx, &models.NewUser{
		Username: "office2",
		Email:    "office1@smallops.local",
		Password: "hunter2hunter2",
	}); err == nil {
		t.Fatalf("expected duplicate email to fail")
	}
	if _, err := models.RegisterUser(ctx, &models.NewUser{
		Username: "office3",
		Email:    "not-an-email",
		Password: "hunter2hunter2",
	}); err == nil {
		t.Fatalf("expected bad email to fail")
	}

	if _, _, err := models.LoginUser(ctx, &models.LoginInput{
		Username: "office1",
		Password: "wrong password",
	}); err == nil {
		t.Fatalf("expected wrong password to fail")
	}

	token, loggedIn, err := models.LoginUser(ctx, &models.LoginInput{
		Username: "office1",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, loggedIn.ID)
	}
	parsed, err := utils.JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	claims := parsed.Claims.(*utils.JwtCustomClaim)
	if claims.ID != user.ID {
		t.Fatalf("token carries wrong user id %d", claims.ID)
	}
}
