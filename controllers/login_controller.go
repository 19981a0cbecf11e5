package controllers

import (
	"github.com/gofiber/fiber/v2"

	"study-backend/apperr"
	"study-backend/auth"
	"study-backend/models"
	"study-backend/services"
)

type LoginController struct {
	Tokens *auth.TokenManager
	Users  *services.UserService
	Base   Store
}

func NewLoginController(tokens *auth.TokenManager, users *services.UserService, base Store) *LoginController {
	return &LoginController{Tokens: tokens, Users: users, Base: base}
}

// AccessToken is the OAuth2 password flow: form fields username (the
// account email) and password.
func (lc *LoginController) AccessToken(c *fiber.Ctx) error {
	email := c.FormValue("username")
	password := c.FormValue("password")
	if email == "" || password == "" {
		return apperr.Unprocessable("username and password are required")
	}

	user, err := lc.Users.Authenticate(c.UserContext(), lc.Base, email, password)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.BadRequest("Incorrect email or password")
	}
	if !user.IsActive {
		return apperr.BadRequest("Inactive user")
	}

	scopes := user.Role
	if user.IsSuperuser {
		scopes += " superuser"
	}
	token, err := lc.Tokens.CreateAccessToken(user.ID, scopes)
	if err != nil {
		return err
	}
	return c.JSON(models.Token{AccessToken: token, TokenType: "bearer"})
}

func (lc *LoginController) TestToken(c *fiber.Ctx) error {
	return c.JSON(CurrentUser(c))
}
