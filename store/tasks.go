package store

import (
	"context"

	"github.com/jackc/pgx/v4"

	"study-backend/listparams"
	"study-backend/models"
)

const (
	taskCols           = "id, title, description, discipline_id, teacher_id, created_date"
	studyGroupTaskCols = "id, study_group_id, task_id, deadline_date"
	taskStudentCols    = "id, task_id, student_id, status, grade, comment, submitted_date"
)

var (
	TaskColumns = listparams.Columns{
		Names: []string{"id", "title", "description", "discipline_id", "teacher_id", "created_date"},
	}
	StudyGroupTaskColumns = listparams.Columns{
		Names: []string{"id", "study_group_id", "task_id", "deadline_date"},
	}
	TaskStudentColumns = listparams.Columns{
		Names:       []string{"id", "task_id", "student_id", "status", "grade", "comment", "submitted_date"},
		Classifiers: models.ClassifierColumns,
	}
)

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DisciplineID, &t.TeacherID, &t.CreatedDate)
	return t, err
}

func scanStudyGroupTask(row pgx.Row) (models.StudyGroupTask, error) {
	var t models.StudyGroupTask
	err := row.Scan(&t.ID, &t.StudyGroupID, &t.TaskID, &t.DeadlineDate)
	return t, err
}

func scanTaskStudent(row pgx.Row) (models.TaskStudent, error) {
	var t models.TaskStudent
	err := row.Scan(&t.ID, &t.TaskID, &t.StudentID, &t.Status, &t.Grade, &t.Comment, &t.SubmittedDate)
	return t, err
}

// one scans a single-row query and maps its error.
func one[T any](row pgx.Row, scan func(pgx.Row) (T, error)) (*T, error) {
	v, err := scan(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (s *Store) GetTask(ctx context.Context, id int) (*models.Task, error) {
	return one(s.db.QueryRow(ctx, "SELECT "+taskCols+" FROM tasks WHERE id = $1", id), scanTask)
}

func (s *Store) ListTasks(ctx context.Context, p listparams.Params) ([]models.Task, int, error) {
	return list(ctx, s.db, "SELECT "+taskCols+" FROM tasks", "tasks", p, nil, scanTask)
}

func (s *Store) CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error) {
	return one(s.db.QueryRow(ctx,
		`INSERT INTO tasks (title, description, discipline_id, teacher_id)
		 VALUES ($1, $2, $3, $4) RETURNING `+taskCols,
		in.Title, in.Description, in.DisciplineID, in.TeacherID), scanTask)
}

func (s *Store) UpdateTask(ctx context.Context, id int, in models.TaskUpdate) (*models.Task, error) {
	var set updateSet
	setIf(&set, "title", in.Title)
	setIf(&set, "description", in.Description)
	setIf(&set, "discipline_id", in.DisciplineID)
	setIf(&set, "teacher_id", in.TeacherID)
	if set.empty() {
		return s.GetTask(ctx, id)
	}
	q, args := set.sql("tasks", "id", id, taskCols)
	return one(s.db.QueryRow(ctx, q, args...), scanTask)
}

func (s *Store) DeleteTask(ctx context.Context, id int) (*models.Task, error) {
	return one(s.db.QueryRow(ctx, "DELETE FROM tasks WHERE id = $1 RETURNING "+taskCols, id), scanTask)
}

func (s *Store) GetStudyGroupTask(ctx context.Context, id int) (*models.StudyGroupTask, error) {
	return one(s.db.QueryRow(ctx, "SELECT "+studyGroupTaskCols+" FROM study_group_tasks WHERE id = $1", id), scanStudyGroupTask)
}

func (s *Store) ListStudyGroupTasks(ctx context.Context, p listparams.Params) ([]models.StudyGroupTask, int, error) {
	return list(ctx, s.db, "SELECT "+studyGroupTaskCols+" FROM study_group_tasks", "study_group_tasks", p, nil, scanStudyGroupTask)
}

func (s *Store) CreateStudyGroupTask(ctx context.Context, in models.StudyGroupTaskCreate) (*models.StudyGroupTask, error) {
	return one(s.db.QueryRow(ctx,
		`INSERT INTO study_group_tasks (study_group_id, task_id, deadline_date)
		 VALUES ($1, $2, $3) RETURNING `+studyGroupTaskCols,
		in.StudyGroupID, in.TaskID, in.DeadlineDate), scanStudyGroupTask)
}

func (s *Store) UpdateStudyGroupTask(ctx context.Context, id int, in models.StudyGroupTaskUpdate) (*models.StudyGroupTask, error) {
	var set updateSet
	setIf(&set, "study_group_id", in.StudyGroupID)
	setIf(&set, "task_id", in.TaskID)
	setIf(&set, "deadline_date", in.DeadlineDate)
	if set.empty() {
		return s.GetStudyGroupTask(ctx, id)
	}
	q, args := set.sql("study_group_tasks", "id", id, studyGroupTaskCols)
	return one(s.db.QueryRow(ctx, q, args...), scanStudyGroupTask)
}

func (s *Store) DeleteStudyGroupTask(ctx context.Context, id int) (*models.StudyGroupTask, error) {
	return one(s.db.QueryRow(ctx, "DELETE FROM study_group_tasks WHERE id = $1 RETURNING "+studyGroupTaskCols, id), scanStudyGroupTask)
}

func (s *Store) GetTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error) {
	return one(s.db.QueryRow(ctx, "SELECT "+taskStudentCols+" FROM task_students WHERE id = $1", id), scanTaskStudent)
}

func (s *Store) ListTaskStudents(ctx context.Context, p listparams.Params) ([]models.TaskStudent, int, error) {
	return list(ctx, s.db, "SELECT "+taskStudentCols+" FROM task_students", "task_students", p, nil, scanTaskStudent)
}

func (s *Store) CreateTaskStudent(ctx context.Context, in models.TaskStudentCreate) (*models.TaskStudent, error) {
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	return one(s.db.QueryRow(ctx,
		`INSERT INTO task_students (task_id, student_id, status, grade, comment)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+taskStudentCols,
		in.TaskID, in.StudentID, status, in.Grade, in.Comment), scanTaskStudent)
}

// UpdateTaskStudent applies the non-nil fields. Moving to submitted stamps
// submitted_date unless the caller supplies one.
func (s *Store) UpdateTaskStudent(ctx context.Context, id int, in models.TaskStudentUpdate) (*models.TaskStudent, error) {
	var set updateSet
	setIf(&set, "status", in.Status)
	setIf(&set, "grade", in.Grade)
	setIf(&set, "comment", in.Comment)
	setIf(&set, "submitted_date", in.SubmittedDate)
	if in.SubmittedDate == nil && in.Status != nil && *in.Status == models.StatusSubmitted {
		set.cols = append(set.cols, "submitted_date = COALESCE(submitted_date, now())")
	}
	if set.empty() {
		return s.GetTaskStudent(ctx, id)
	}
	q, args := set.sql("task_students", "id", id, taskStudentCols)
	return one(s.db.QueryRow(ctx, q, args...), scanTaskStudent)
}

func (s *Store) DeleteTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error) {
	return one(s.db.QueryRow(ctx, "DELETE FROM task_students WHERE id = $1 RETURNING "+taskStudentCols, id), scanTaskStudent)
}

// ListTaskStudentDetails returns a student's assignments with task titles.
func (s *Store) ListTaskStudentDetails(ctx context.Context, studentID int) ([]models.TaskStudentDetail, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ts.id, ts.task_id, ts.student_id, ts.status, ts.grade, ts.comment, ts.submitted_date, t.title
		 FROM task_students ts JOIN tasks t ON t.id = ts.task_id
		 WHERE ts.student_id = $1
		 ORDER BY ts.id`, studentID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]models.TaskStudentDetail, 0)
	for rows.Next() {
		var d models.TaskStudentDetail
		if err := rows.Scan(&d.ID, &d.TaskID, &d.StudentID, &d.Status, &d.Grade, &d.Comment,
			&d.SubmittedDate, &d.TaskTitle); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
