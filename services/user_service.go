package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"study-backend/auth"
	"study-backend/models"
	"study-backend/store"
)

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, in models.UserCreate, hashedPassword string) (*models.User, error)
	UpdateUser(ctx context.Context, id int, in models.UserUpdate, hashedPassword *string) (*models.User, error)
}

// UserService owns the password handling around user records. The store is
// passed per call because requests may run on a per-user database session.
type UserService struct {
	Log zerolog.Logger
}

func NewUserService(log zerolog.Logger) *UserService {
	return &UserService{Log: log}
}

func (us *UserService) Create(ctx context.Context, st UserStore, in models.UserCreate) (*models.User, error) {
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return st.CreateUser(ctx, in, hashed)
}

// Update rehashes the password only when a new one is supplied.
func (us *UserService) Update(ctx context.Context, st UserStore, id int, in models.UserUpdate) (*models.User, error) {
	var hashed *string
	if in.Password != nil && *in.Password != "" {
		h, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		hashed = &h
	}
	return st.UpdateUser(ctx, id, in, hashed)
}

// Authenticate returns nil without error when the email is unknown or the
// password does not match.
func (us *UserService) Authenticate(ctx context.Context, st UserStore, email, password string) (*models.User, error) {
	user, err := st.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(password, user.HashedPassword) {
		return nil, nil
	}
	return user, nil
}

// EnsureSuperuser creates the first superuser unless a user with that email
// exists already. Empty credentials skip seeding.
func (us *UserService) EnsureSuperuser(ctx context.Context, st UserStore, email, password string) error {
	if email == "" || password == "" {
		us.Log.Info().Msg("FIRST_SUPERUSER not set, skipping seed")
		return nil
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("FIRST_SUPERUSER_PASSWORD: %w", auth.ErrPasswordTooLong)
	}
	_, err := st.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	active := true
	u, err := us.Create(ctx, st, models.UserCreate{
		Username:    usernameFromEmail(email),
		Email:       email,
		Password:    password,
		Role:        models.RoleAdmin,
		IsActive:    &active,
		IsSuperuser: true,
	})
	if err != nil {
		return err
	}
	us.Log.Info().Int("user_id", u.ID).Str("email", email).Msg("created first superuser")
	return nil
}

func usernameFromEmail(email string) string {
	for i, r := range email {
		if r == '@' {
			return email[:i]
		}
	}
	return email
}
