package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-backend/config"
	"study-backend/listparams"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("already exists")
	ErrReference = errors.New("invalid reference")
	ErrCheck     = errors.New("value not allowed")
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens the connection pool. Sessions use the configured time zone.
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pcfg.ConnConfig.RuntimeParams["timezone"] = cfg.TZ
	pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.ProjectName
	return pgxpool.ConnectConfig(ctx, pcfg)
}

// Version reports the server version string.
func (s *Store) Version(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRow(ctx, "SELECT version()").Scan(&v)
	return v, err
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
		case "23503":
			return fmt.Errorf("%w: %s", ErrReference, pgErr.Detail)
		case "23514":
			return fmt.Errorf("%w: %s", ErrCheck, pgErr.ConstraintName)
		}
	}
	return err
}

// list runs a filtered page query and the matching count.
func list[T any](ctx context.Context, db DBTX, selectSQL, table string, p listparams.Params, extra []listparams.Condition, scan func(pgx.Row) (T, error)) ([]T, int, error) {
	where, args := listparams.WhereConditions(append(append([]listparams.Condition{}, extra...), p.Conditions...), nil)

	var total int
	if err := db.QueryRow(ctx, "SELECT count(*) FROM "+table+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	rows, err := db.Query(ctx, selectSQL+where+p.Tail(), args...)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// updateSet collects the columns of a partial update.
type updateSet struct {
	cols []string
	args []interface{}
}

func (u *updateSet) add(col string, v interface{}) {
	u.args = append(u.args, v)
	u.cols = append(u.cols, col+" = $"+strconv.Itoa(len(u.args)))
}

func setIf[T any](u *updateSet, col string, v *T) {
	if v != nil {
		u.add(col, *v)
	}
}

func (u *updateSet) empty() bool { return len(u.cols) == 0 }

// sql renders "UPDATE table SET ... WHERE key = $n RETURNING cols".
func (u *updateSet) sql(table, key string, keyVal interface{}, returning string) (string, []interface{}) {
	args := append(u.args, keyVal)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		table, strings.Join(u.cols, ", "), key, len(args), returning)
	return q, args
}
