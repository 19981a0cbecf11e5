package controllers

import (
	"github.com/gofiber/fiber/v2"

	"study-backend/apperr"
	"study-backend/eventhandlers"
	"study-backend/metrics"
	"study-backend/models"
	"study-backend/store"
)

type TaskStudentController struct {
	Events *eventhandlers.Publisher
}

func NewTaskStudentController(events *eventhandlers.Publisher) *TaskStudentController {
	return &TaskStudentController{Events: events}
}

func (tc *TaskStudentController) List(c *fiber.Ctx) error {
	p, err := listParams(c, store.TaskStudentColumns)
	if err != nil {
		return err
	}
	items, total, err := StoreOf(c).ListTaskStudents(c.UserContext(), p)
	if err != nil {
		return err
	}
	return sendList(c, p, items, total)
}

func (tc *TaskStudentController) Create(c *fiber.Ctx) error {
	var in models.TaskStudentCreate
	if err := bind(c, &in); err != nil {
		return err
	}
	ts, err := StoreOf(c).CreateTaskStudent(c.UserContext(), in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	tc.Events.Publish(c.UserContext(), eventhandlers.TaskStudentCreated, ts.ID, ts)
	return c.JSON(ts)
}

func (tc *TaskStudentController) Read(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ts, err := StoreOf(c).GetTaskStudent(c.UserContext(), id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	return c.JSON(ts)
}

func (tc *TaskStudentController) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in models.TaskStudentUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	st := StoreOf(c)
	ctx := c.UserContext()

	before, err := st.GetTaskStudent(ctx, id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	ts, err := st.UpdateTaskStudent(ctx, id, in)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	if ts.Status == models.StatusCompleted && before.Status != models.StatusCompleted {
		metrics.TaskCompleted()
	}
	tc.Events.Publish(ctx, eventhandlers.TaskStudentUpdated, ts.ID, ts)
	return c.JSON(ts)
}

// Delete only removes completed assignments.
func (tc *TaskStudentController) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	st := StoreOf(c)
	ctx := c.UserContext()

	ts, err := st.GetTaskStudent(ctx, id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	if ts.Status != models.StatusCompleted {
		return apperr.NotFound("Uncompleted task cannot be removed")
	}
	ts, err = st.DeleteTaskStudent(ctx, id)
	if err != nil {
		return storeErr(err, itemNotFound)
	}
	tc.Events.Publish(ctx, eventhandlers.TaskStudentDeleted, ts.ID, ts)
	return c.JSON(ts)
}
