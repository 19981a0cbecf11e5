package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"study-backend/models"
)

var (
	ErrInactiveUser   = errors.New("user is not active")
	ErrPrivilegedRole = errors.New("database role is privileged")
)

// userRolePrefix keeps per-user roles apart from the group roles and from
// login roles such as the connection's own.
const userRolePrefix = "u_"

// RoleSession is a pooled connection switched to the database role of one
// user. Release must be called when the request is done.
type RoleSession struct {
	*Store
	conn    DBTX
	release func()
	discard func(ctx context.Context) error
	log     zerolog.Logger
}

// DBRoleName is the database role backing a user account.
func DBRoleName(username string) string {
	return userRolePrefix + strings.ToLower(username)
}

// OpenRoleSession acquires a connection and runs it as the user's database
// role, creating the role through create_user_in_role when it is missing.
func OpenRoleSession(ctx context.Context, pool *pgxpool.Pool, user *models.User, log zerolog.Logger) (*RoleSession, error) {
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	if user.Username == "" {
		return nil, fmt.Errorf("user %d has no username", user.ID)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	rs := newRoleSession(conn, conn.Release, func(ctx context.Context) error {
		return conn.Conn().Close(ctx)
	}, log)

	if err := rs.enter(ctx, DBRoleName(user.Username), user.Role); err != nil {
		rs.Release(ctx)
		return nil, err
	}
	return rs, nil
}

func newRoleSession(conn DBTX, release func(), discard func(ctx context.Context) error, log zerolog.Logger) *RoleSession {
	return &RoleSession{Store: New(conn), conn: conn, release: release, discard: discard, log: log}
}

func (rs *RoleSession) enter(ctx context.Context, role, group string) error {
	if _, err := rs.conn.Exec(ctx, "RESET SESSION AUTHORIZATION"); err != nil {
		return err
	}

	var privileged bool
	err := rs.conn.QueryRow(ctx,
		"SELECT rolsuper OR rolcanlogin FROM pg_roles WHERE rolname = $1", role).Scan(&privileged)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := rs.conn.Exec(ctx, "SELECT create_user_in_role($1, $2)", role, group); err != nil {
			return fmt.Errorf("create db role %s: %w", role, err)
		}
		rs.log.Info().Str("role", role).Str("group", group).Msg("created db role")
	case err != nil:
		return err
	case privileged:
		return fmt.Errorf("%w: %s", ErrPrivilegedRole, role)
	}

	if _, err := rs.conn.Exec(ctx, "SET SESSION AUTHORIZATION "+pgx.Identifier{role}.Sanitize()); err != nil {
		return fmt.Errorf("set session authorization %s: %w", role, err)
	}
	rs.log.Debug().Str("role", role).Msg("session authorization set")
	return nil
}

// Release resets the session role and returns the connection to the pool.
// A connection whose reset fails is closed instead of reused.
func (rs *RoleSession) Release(ctx context.Context) {
	if _, err := rs.conn.Exec(ctx, "RESET SESSION AUTHORIZATION"); err != nil {
		rs.log.Warn().Err(err).Msg("reset session authorization")
		if err := rs.discard(ctx); err != nil {
			rs.log.Warn().Err(err).Msg("close connection")
		}
	}
	rs.release()
}
