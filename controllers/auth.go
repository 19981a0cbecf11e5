package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"study-backend/apperr"
	"study-backend/auth"
	"study-backend/models"
	"study-backend/store"
)

// SessionOpener binds a store to the user's own database role. release is
// called once the request is done.
type SessionOpener func(ctx context.Context, user *models.User) (st Store, release func(), err error)

// Auth resolves bearer tokens to users.
type Auth struct {
	Tokens   *auth.TokenManager
	Base     Store
	Sessions SessionOpener
	Log      zerolog.Logger
}

func NewAuth(tokens *auth.TokenManager, base Store, sessions SessionOpener, log zerolog.Logger) *Auth {
	return &Auth{Tokens: tokens, Base: base, Sessions: sessions, Log: log}
}

func credentialsError() error {
	return apperr.Unauthorized("Could not validate credentials")
}

// RequireUser authenticates the request and binds the request store.
func (a *Auth) RequireUser(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return apperr.Unauthorized("Not authenticated")
	}

	userID, _, err := a.Tokens.ParseAccessToken(token)
	if err != nil {
		a.Log.Debug().Err(err).Msg("rejected token")
		return credentialsError()
	}
	ctx := c.UserContext()
	user, err := a.Base.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return credentialsError()
	}
	if err != nil {
		return err
	}

	st := a.Base
	if a.Sessions != nil {
		if user.Username == "" {
			return apperr.BadRequest("username not valid")
		}
		rs, release, err := a.Sessions(ctx, user)
		if errors.Is(err, store.ErrInactiveUser) {
			return apperr.BadRequest("user is not active")
		}
		if errors.Is(err, store.ErrPrivilegedRole) {
			return apperr.Forbidden("database role not allowed")
		}
		if err != nil {
			return err
		}
		defer release()
		st = rs
	}

	c.Locals(localUser, user)
	c.Locals(localStore, st)
	return c.Next()
}

// RequireActive rejects deactivated accounts.
func RequireActive(c *fiber.Ctx) error {
	u := CurrentUser(c)
	if u == nil || !u.IsActive {
		return apperr.BadRequest("Inactive user")
	}
	return c.Next()
}

func RequireSuperuser(c *fiber.Ctx) error {
	u := CurrentUser(c)
	if u == nil || !u.IsSuperuser {
		return apperr.BadRequest("The user doesn't have enough privileges")
	}
	return c.Next()
}

// RoleSessions opens per-user database sessions on the pool behind open.
func RoleSessions(open func(ctx context.Context, user *models.User) (*store.RoleSession, error)) SessionOpener {
	return func(ctx context.Context, user *models.User) (Store, func(), error) {
		rs, err := open(ctx, user)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Release(context.Background()) }, nil
	}
}
