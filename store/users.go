package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"

	"study-backend/listparams"
	"study-backend/models"
)

const userCols = `id, username, email, full_name, hashed_password, role, study_group_cipher_id,
	is_active, is_superuser, is_online, created_date`

var UserColumns = listparams.Columns{
	Names: []string{"id", "username", "email", "full_name", "role", "study_group_cipher_id",
		"is_active", "is_superuser", "is_online", "created_date"},
	Classifiers: models.ClassifierColumns,
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.HashedPassword, &u.Role,
		&u.StudyGroupCipherID, &u.IsActive, &u.IsSuperuser, &u.IsOnline, &u.CreatedDate)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userCols+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userCols+" FROM users WHERE email = $1", email))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// ListUsers pages through users. A non-empty roles list restricts the result
// to those roles.
func (s *Store) ListUsers(ctx context.Context, p listparams.Params, roles []string) ([]models.User, int, error) {
	var extra []listparams.Condition
	if len(roles) > 0 {
		extra = append(extra, listparams.Condition{Column: "role", Op: listparams.OpIn, Value: roles})
	}
	return list(ctx, s.db, "SELECT "+userCols+" FROM users", "users", p, extra, scanUser)
}

func (s *Store) CreateUser(ctx context.Context, in models.UserCreate, hashedPassword string) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	u, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, full_name, hashed_password, role, study_group_cipher_id, is_active, is_superuser)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userCols,
		in.Username, in.Email, in.FullName, hashedPassword, role, in.StudyGroupCipherID, active, in.IsSuperuser))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// UpdateUser applies the non-nil fields of in. hashedPassword replaces the
// stored hash when set.
func (s *Store) UpdateUser(ctx context.Context, id int, in models.UserUpdate, hashedPassword *string) (*models.User, error) {
	var set updateSet
	setIf(&set, "username", in.Username)
	setIf(&set, "email", in.Email)
	setIf(&set, "full_name", in.FullName)
	setIf(&set, "hashed_password", hashedPassword)
	setIf(&set, "role", in.Role)
	setIf(&set, "study_group_cipher_id", in.StudyGroupCipherID)
	setIf(&set, "is_active", in.IsActive)
	setIf(&set, "is_superuser", in.IsSuperuser)
	setIf(&set, "is_online", in.IsOnline)
	if set.empty() {
		return s.GetUser(ctx, id)
	}
	q, args := set.sql("users", "id", id, userCols)
	u, err := scanUser(s.db.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "DELETE FROM users WHERE id = $1 RETURNING "+userCols, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// DeleteUserAndRole deletes the user and drops its database role in one
// transaction, so a failed drop keeps the user.
func (s *Store) DeleteUserAndRole(ctx context.Context, id int) (*models.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u, err := scanUser(tx.QueryRow(ctx, "DELETE FROM users WHERE id = $1 RETURNING "+userCols, id))
	if err != nil {
		return nil, mapErr(err)
	}
	if _, err := tx.Exec(ctx, "DROP ROLE IF EXISTS "+pgx.Identifier{DBRoleName(u.Username)}.Sanitize()); err != nil {
		return nil, fmt.Errorf("drop db role: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}
