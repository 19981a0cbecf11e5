package controllers

import (
	"github.com/gofiber/fiber/v2"

	"study-backend/models"
	"study-backend/store"
)

type TaskController struct{}

func NewTaskController() *TaskController {
	return &TaskController{}
}

func (tc *TaskController) List(c *fiber.Ctx) error {
	p, err := listParams(c, store.TaskColumns)
	if err != nil {
		return err
	}
	items, total, err := StoreOf(c).ListTasks(c.UserContext(), p)
	if err != nil {
		return err
	}
	return sendList(c, p, items, total)
}

func (tc *TaskController) Create(c *fiber.Ctx) error {
	var in models.TaskCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	if me := CurrentUser(c); in.TeacherID == nil && me.Role == models.RoleTeacher {
		in.TeacherID = &me.ID
	}
	t, err := StoreOf(c).CreateTask(c.UserContext(), in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

func (tc *TaskController) Read(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	t, err := StoreOf(c).GetTask(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

func (tc *TaskController) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in models.TaskUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	t, err := StoreOf(c).UpdateTask(c.UserContext(), id, in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

func (tc *TaskController) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	t, err := StoreOf(c).DeleteTask(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

type StudyGroupTaskController struct{}

func NewStudyGroupTaskController() *StudyGroupTaskController {
	return &StudyGroupTaskController{}
}

func (gc *StudyGroupTaskController) List(c *fiber.Ctx) error {
	p, err := listParams(c, store.StudyGroupTaskColumns)
	if err != nil {
		return err
	}
	items, total, err := StoreOf(c).ListStudyGroupTasks(c.UserContext(), p)
	if err != nil {
		return err
	}
	return sendList(c, p, items, total)
}

func (gc *StudyGroupTaskController) Create(c *fiber.Ctx) error {
	var in models.StudyGroupTaskCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	t, err := StoreOf(c).CreateStudyGroupTask(c.UserContext(), in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

func (gc *StudyGroupTaskController) Read(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	t, err := StoreOf(c).GetStudyGroupTask(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

func (gc *StudyGroupTaskController) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in models.StudyGroupTaskUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	t, err := StoreOf(c).UpdateStudyGroupTask(c.UserContext(), id, in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}

func (gc *StudyGroupTaskController) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	t, err := StoreOf(c).DeleteStudyGroupTask(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(t)
}
