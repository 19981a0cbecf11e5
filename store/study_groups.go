package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"

	"study-backend/listparams"
	"study-backend/models"
)

var (
	StudyGroupCipherColumns = listparams.Columns{Names: []string{"id", "title"}}
	StudyGroupColumns       = listparams.Columns{Names: []string{"id", "discipline_id"}}
)

func scanCipher(row pgx.Row) (models.StudyGroupCipher, error) {
	var c models.StudyGroupCipher
	err := row.Scan(&c.ID, &c.Title)
	return c, err
}

func scanStudyGroup(row pgx.Row) (models.StudyGroup, error) {
	var g models.StudyGroup
	err := row.Scan(&g.ID, &g.DisciplineID)
	return g, err
}

func (s *Store) GetStudyGroupCipher(ctx context.Context, id string) (*models.StudyGroupCipher, error) {
	c, err := scanCipher(s.db.QueryRow(ctx, "SELECT id, title FROM study_group_ciphers WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) ListStudyGroupCiphers(ctx context.Context, p listparams.Params) ([]models.StudyGroupCipher, int, error) {
	return list(ctx, s.db, "SELECT id, title FROM study_group_ciphers", "study_group_ciphers", p, nil, scanCipher)
}

func (s *Store) CreateStudyGroupCipher(ctx context.Context, in models.StudyGroupCipherCreate) (*models.StudyGroupCipher, error) {
	c, err := scanCipher(s.db.QueryRow(ctx,
		"INSERT INTO study_group_ciphers (id, title) VALUES ($1, $2) RETURNING id, title", in.ID, in.Title))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) UpdateStudyGroupCipher(ctx context.Context, id string, in models.StudyGroupCipherUpdate) (*models.StudyGroupCipher, error) {
	c, err := scanCipher(s.db.QueryRow(ctx,
		"UPDATE study_group_ciphers SET title = $1 WHERE id = $2 RETURNING id, title", in.Title, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) DeleteStudyGroupCipher(ctx context.Context, id string) (*models.StudyGroupCipher, error) {
	c, err := scanCipher(s.db.QueryRow(ctx, "DELETE FROM study_group_ciphers WHERE id = $1 RETURNING id, title", id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) ListStudyGroups(ctx context.Context, p listparams.Params) ([]models.StudyGroup, int, error) {
	return list(ctx, s.db, "SELECT id, discipline_id FROM study_groups", "study_groups", p, nil, scanStudyGroup)
}

// ListStudyGroupsByCipher returns every discipline row of one group.
func (s *Store) ListStudyGroupsByCipher(ctx context.Context, id string) ([]models.StudyGroup, error) {
	return s.studyGroupRows(ctx, s.db, id)
}

func (s *Store) studyGroupRows(ctx context.Context, db DBTX, id string) ([]models.StudyGroup, error) {
	rows, err := db.Query(ctx,
		"SELECT id, discipline_id FROM study_groups WHERE id = $1 ORDER BY discipline_id", id)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	groups := make([]models.StudyGroup, 0)
	for rows.Next() {
		g, err := scanStudyGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateStudyGroupWithDisciplines inserts one row per discipline in a single
// transaction and returns all of the group's rows afterwards. Rows that
// already exist are left alone. A missing cipher is created on the fly.
func (s *Store) CreateStudyGroupWithDisciplines(ctx context.Context, in models.StudyGroupCreate) ([]models.StudyGroup, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"INSERT INTO study_group_ciphers (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", in.ID); err != nil {
		return nil, mapErr(err)
	}
	for _, disciplineID := range in.DisciplineID {
		if _, err := tx.Exec(ctx,
			"INSERT INTO study_groups (id, discipline_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			in.ID, disciplineID); err != nil {
			return nil, fmt.Errorf("discipline %d: %w", disciplineID, mapErr(err))
		}
	}
	groups, err := s.studyGroupRows(ctx, tx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *Store) DeleteStudyGroup(ctx context.Context, id string, disciplineID int) (*models.StudyGroup, error) {
	g, err := scanStudyGroup(s.db.QueryRow(ctx,
		"DELETE FROM study_groups WHERE id = $1 AND discipline_id = $2 RETURNING id, discipline_id", id, disciplineID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}
