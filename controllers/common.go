package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"study-backend/apperr"
	"study-backend/auth"
	"study-backend/listparams"
	"study-backend/models"
	"study-backend/store"
)

// Store is the persistence surface the handlers use. *store.Store and
// *store.RoleSession both satisfy it.
type Store interface {
	Version(ctx context.Context) (string, error)

	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, p listparams.Params, roles []string) ([]models.User, int, error)
	CreateUser(ctx context.Context, in models.UserCreate, hashedPassword string) (*models.User, error)
	UpdateUser(ctx context.Context, id int, in models.UserUpdate, hashedPassword *string) (*models.User, error)
	DeleteUser(ctx context.Context, id int) (*models.User, error)

	GetDiscipline(ctx context.Context, id int) (*models.Discipline, error)
	ListDisciplines(ctx context.Context, p listparams.Params) ([]models.Discipline, int, error)
	CreateDiscipline(ctx context.Context, in models.DisciplineCreate) (*models.Discipline, error)
	UpdateDiscipline(ctx context.Context, id int, in models.DisciplineUpdate) (*models.Discipline, error)
	DeleteDiscipline(ctx context.Context, id int) (*models.Discipline, error)

	GetStudyGroupCipher(ctx context.Context, id string) (*models.StudyGroupCipher, error)
	ListStudyGroupCiphers(ctx context.Context, p listparams.Params) ([]models.StudyGroupCipher, int, error)
	CreateStudyGroupCipher(ctx context.Context, in models.StudyGroupCipherCreate) (*models.StudyGroupCipher, error)
	UpdateStudyGroupCipher(ctx context.Context, id string, in models.StudyGroupCipherUpdate) (*models.StudyGroupCipher, error)
	DeleteStudyGroupCipher(ctx context.Context, id string) (*models.StudyGroupCipher, error)

	ListStudyGroups(ctx context.Context, p listparams.Params) ([]models.StudyGroup, int, error)
	ListStudyGroupsByCipher(ctx context.Context, id string) ([]models.StudyGroup, error)
	CreateStudyGroupWithDisciplines(ctx context.Context, in models.StudyGroupCreate) ([]models.StudyGroup, error)
	DeleteStudyGroup(ctx context.Context, id string, disciplineID int) (*models.StudyGroup, error)

	GetTask(ctx context.Context, id int) (*models.Task, error)
	ListTasks(ctx context.Context, p listparams.Params) ([]models.Task, int, error)
	CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error)
	UpdateTask(ctx context.Context, id int, in models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id int) (*models.Task, error)

	GetStudyGroupTask(ctx context.Context, id int) (*models.StudyGroupTask, error)
	ListStudyGroupTasks(ctx context.Context, p listparams.Params) ([]models.StudyGroupTask, int, error)
	CreateStudyGroupTask(ctx context.Context, in models.StudyGroupTaskCreate) (*models.StudyGroupTask, error)
	UpdateStudyGroupTask(ctx context.Context, id int, in models.StudyGroupTaskUpdate) (*models.StudyGroupTask, error)
	DeleteStudyGroupTask(ctx context.Context, id int) (*models.StudyGroupTask, error)

	GetTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error)
	ListTaskStudents(ctx context.Context, p listparams.Params) ([]models.TaskStudent, int, error)
	CreateTaskStudent(ctx context.Context, in models.TaskStudentCreate) (*models.TaskStudent, error)
	UpdateTaskStudent(ctx context.Context, id int, in models.TaskStudentUpdate) (*models.TaskStudent, error)
	DeleteTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error)
	ListTaskStudentDetails(ctx context.Context, studentID int) ([]models.TaskStudentDetail, error)
}

const (
	localUser  = "current_user"
	localStore = "store"
)

const itemNotFound = "Item not found"

// CurrentUser is the authenticated user set by Auth.RequireUser.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localUser).(*models.User)
	return u
}

// StoreOf is the store bound to the request: the pool, or the user's own
// database session when role sessions are on.
func StoreOf(c *fiber.Ctx) Store {
	st, _ := c.Locals(localStore).(Store)
	return st
}

func listParams(c *fiber.Ctx, cols listparams.Columns) (listparams.Params, error) {
	return listparams.Parse(c.Query("sort"), c.Query("range"), c.Query("filter"), cols)
}

// sendList writes a page with the Content-Range header react-admin reads.
func sendList[T any](c *fiber.Ctx, p listparams.Params, items []T, total int) error {
	c.Set("Content-Range", listparams.ContentRange(p.Skip, len(items), total))
	return c.JSON(items)
}

func idParam(c *fiber.Ctx, name string) (int, error) {
	id, err := c.ParamsInt(name)
	if err != nil {
		return 0, apperr.Unprocessable(name + ": value is not a valid integer")
	}
	return id, nil
}

// storeErr turns store errors into API errors. notFound is the detail used
// for missing rows.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrReference),
		errors.Is(err, store.ErrCheck):
		return apperr.BadRequest(err.Error())
	case errors.Is(err, auth.ErrPasswordTooLong):
		return apperr.Unprocessable("password: " + err.Error())
	}
	return err
}
