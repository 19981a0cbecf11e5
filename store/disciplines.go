package store

import (
	"context"

	"github.com/jackc/pgx/v4"

	"study-backend/listparams"
	"study-backend/models"
)

var DisciplineColumns = listparams.Columns{Names: []string{"id", "title"}}

func scanDiscipline(row pgx.Row) (models.Discipline, error) {
	var d models.Discipline
	err := row.Scan(&d.ID, &d.Title)
	return d, err
}

func (s *Store) GetDiscipline(ctx context.Context, id int) (*models.Discipline, error) {
	d, err := scanDiscipline(s.db.QueryRow(ctx, "SELECT id, title FROM disciplines WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (s *Store) ListDisciplines(ctx context.Context, p listparams.Params) ([]models.Discipline, int, error) {
	return list(ctx, s.db, "SELECT id, title FROM disciplines", "disciplines", p, nil, scanDiscipline)
}

func (s *Store) CreateDiscipline(ctx context.Context, in models.DisciplineCreate) (*models.Discipline, error) {
	d, err := scanDiscipline(s.db.QueryRow(ctx,
		"INSERT INTO disciplines (title) VALUES ($1) RETURNING id, title", in.Title))
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (s *Store) UpdateDiscipline(ctx context.Context, id int, in models.DisciplineUpdate) (*models.Discipline, error) {
	d, err := scanDiscipline(s.db.QueryRow(ctx,
		"UPDATE disciplines SET title = $1 WHERE id = $2 RETURNING id, title", in.Title, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (s *Store) DeleteDiscipline(ctx context.Context, id int) (*models.Discipline, error) {
	d, err := scanDiscipline(s.db.QueryRow(ctx, "DELETE FROM disciplines WHERE id = $1 RETURNING id, title", id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}
